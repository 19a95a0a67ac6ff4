package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandloom/brandloom/engine/conversation"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestNormalizeUploads(t *testing.T) {
	t.Run("Should assign local display indices in input order", func(t *testing.T) {
		uploads := []Upload{
			{Type: conversation.AttachmentImage, URL: "https://cdn.example.com/a.png", FileName: "a.png"},
			{Type: conversation.AttachmentImage, URL: "https://cdn.example.com/b.png", FileName: "b.png"},
		}
		items := NormalizeUploads(context.Background(), uploads, 7)
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].DisplayIndex)
		assert.Equal(t, 2, items[1].DisplayIndex)
		assert.Equal(t, 7, items[0].TurnIndex)
		assert.Equal(t, SourceUserUpload, items[0].Source)
	})
	t.Run("Should drop uploads with neither URL nor inline data", func(t *testing.T) {
		uploads := []Upload{
			{FileName: "ghost.png"},
			{URL: "https://cdn.example.com/real.png", FileName: "real.png"},
		}
		items := NormalizeUploads(context.Background(), uploads, 0)
		require.Len(t, items, 1)
		assert.Equal(t, "real.png", items[0].FileName)
		assert.Equal(t, 1, items[0].DisplayIndex)
	})
	t.Run("Should propagate the reinjected flag", func(t *testing.T) {
		uploads := []Upload{{URL: "https://cdn.example.com/logo.png", FileName: "logo.png", Reinjected: true}}
		items := NormalizeUploads(context.Background(), uploads, 3)
		require.Len(t, items, 1)
		assert.True(t, items[0].IsReinjected)
	})
	t.Run("Should detect MIME type from inline content", func(t *testing.T) {
		uploads := []Upload{{FileName: "pasted", Data: pngHeader}}
		items := NormalizeUploads(context.Background(), uploads, 0)
		require.Len(t, items, 1)
		assert.Equal(t, "image/png", items[0].MimeType)
		assert.Equal(t, conversation.AttachmentImage, items[0].Type)
	})
	t.Run("Should fall back to the file extension for MIME detection", func(t *testing.T) {
		uploads := []Upload{{URL: "https://cdn.example.com/spot.mp4", FileName: "spot.mp4"}}
		items := NormalizeUploads(context.Background(), uploads, 0)
		require.Len(t, items, 1)
		assert.Equal(t, "video/mp4", items[0].MimeType)
		assert.Equal(t, conversation.AttachmentVideo, items[0].Type)
	})
	t.Run("Should keep a declared MIME type as-is", func(t *testing.T) {
		uploads := []Upload{{URL: "https://cdn.example.com/x.bin", FileName: "x.bin", MimeType: "image/webp"}}
		items := NormalizeUploads(context.Background(), uploads, 0)
		require.Len(t, items, 1)
		assert.Equal(t, "image/webp", items[0].MimeType)
	})
	t.Run("Should derive semantic tags from the file name", func(t *testing.T) {
		uploads := []Upload{{URL: "https://cdn.example.com/f.png", FileName: "Summer-Campaign_v2 FINAL.png"}}
		items := NormalizeUploads(context.Background(), uploads, 0)
		require.Len(t, items, 1)
		assert.Equal(t, []string{"summer", "campaign", "v2", "final"}, items[0].SemanticTags)
	})
	t.Run("Should return nil for no uploads", func(t *testing.T) {
		assert.Nil(t, NormalizeUploads(context.Background(), nil, 0))
	})
}

func TestDecodeUploads(t *testing.T) {
	t.Run("Should decode uploads with inline base64 data", func(t *testing.T) {
		raw := []byte(`[{"type":"image","file_name":"pasted.png","data":"iVBORw0KGgo="}]`)
		uploads, err := DecodeUploads(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, uploads, 1)
		assert.Equal(t, conversation.AttachmentImage, uploads[0].Type)
		assert.NotEmpty(t, uploads[0].Data)
	})
	t.Run("Should accept camelCase reinjection keys", func(t *testing.T) {
		raw := []byte(`[{"type":"image","url":"https://cdn.example.com/logo.png","isReinjected":true}]`)
		uploads, err := DecodeUploads(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, uploads, 1)
		assert.True(t, uploads[0].Reinjected)
	})
	t.Run("Should keep uploads with undecodable data but drop the bytes", func(t *testing.T) {
		raw := []byte(`[{"type":"image","url":"https://cdn.example.com/a.png","data":"%%%not-base64%%%"}]`)
		uploads, err := DecodeUploads(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, uploads, 1)
		assert.Empty(t, uploads[0].Data)
		assert.NotEmpty(t, uploads[0].URL)
	})
	t.Run("Should return nil for empty payload", func(t *testing.T) {
		uploads, err := DecodeUploads(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, uploads)
	})
	t.Run("Should reject a non-array root", func(t *testing.T) {
		_, err := DecodeUploads(context.Background(), []byte(`{"url":"x"}`))
		assert.ErrorContains(t, err, "must be a JSON array")
	})
}
