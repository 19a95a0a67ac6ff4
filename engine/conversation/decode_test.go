package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHistory(t *testing.T) {
	t.Run("Should decode messages with attachments in order", func(t *testing.T) {
		raw := []byte(`[
			{"role":"user","content":"here is our logo","attachments":[
				{"type":"image","url":"https://cdn.example.com/logo.png","file_name":"logo.png","mime_type":"image/png","persistent_id":"med_1"}
			]},
			{"role":"assistant","content":"looks great"}
		]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, RoleUser, msgs[0].Role)
		assert.Equal(t, 0, msgs[0].TurnIndex)
		require.Len(t, msgs[0].Attachments, 1)
		assert.Equal(t, AttachmentImage, msgs[0].Attachments[0].Type)
		assert.Equal(t, "logo.png", msgs[0].Attachments[0].FileName)
		assert.Equal(t, RoleAssistant, msgs[1].Role)
		assert.Equal(t, 1, msgs[1].TurnIndex)
		assert.False(t, msgs[1].HasAttachments())
	})
	t.Run("Should accept camelCase keys from the frontend", func(t *testing.T) {
		raw := []byte(`[
			{"role":"user","content":"banner draft","attachments":[
				{"type":"image","url":"https://cdn.example.com/banner.jpg","fileName":"banner.jpg","mimeType":"image/jpeg","persistentId":"med_9"}
			]}
		]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].Attachments, 1)
		att := msgs[0].Attachments[0]
		assert.Equal(t, "banner.jpg", att.FileName)
		assert.Equal(t, "image/jpeg", att.MimeType)
		assert.Equal(t, "med_9", att.PersistentID)
	})
	t.Run("Should skip attachments without a URL and keep the rest", func(t *testing.T) {
		raw := []byte(`[
			{"role":"user","content":"two files","attachments":[
				{"type":"image","file_name":"broken.png"},
				{"type":"image","url":"https://cdn.example.com/ok.png","file_name":"ok.png"}
			]}
		]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.Len(t, msgs[0].Attachments, 1)
		assert.Equal(t, "ok.png", msgs[0].Attachments[0].FileName)
	})
	t.Run("Should default unknown roles to user", func(t *testing.T) {
		raw := []byte(`[{"role":"system","content":"hi"}]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, RoleUser, msgs[0].Role)
	})
	t.Run("Should infer attachment type from MIME when declared type is unknown", func(t *testing.T) {
		raw := []byte(`[
			{"role":"user","attachments":[
				{"type":"upload","url":"https://cdn.example.com/spot.mp4","mime_type":"video/mp4"}
			]}
		]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		require.Len(t, msgs[0].Attachments, 1)
		assert.Equal(t, AttachmentVideo, msgs[0].Attachments[0].Type)
	})
	t.Run("Should stamp turn index from position", func(t *testing.T) {
		raw := []byte(`[
			{"role":"user","content":"a","turn_index":99},
			{"role":"assistant","content":"b"}
		]`)
		msgs, err := DecodeHistory(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, 0, msgs[0].TurnIndex)
		assert.Equal(t, 1, msgs[1].TurnIndex)
	})
	t.Run("Should return nil for empty payload", func(t *testing.T) {
		msgs, err := DecodeHistory(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, msgs)
	})
	t.Run("Should reject a non-array root", func(t *testing.T) {
		_, err := DecodeHistory(context.Background(), []byte(`{"role":"user"}`))
		assert.ErrorContains(t, err, "must be a JSON array")
	})
}
