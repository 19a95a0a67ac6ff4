package media

import (
	"context"
	"strings"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/pkg/logger"
)

// NormalizeUploads converts the current turn's raw uploads into enriched
// items. Display indices are 1-based and local to the turn, numbering the
// kept uploads in input-box order; they are independent of the registry's
// chronological numbering. Uploads with neither a URL nor inline data are
// dropped with a debug log. Missing MIME types are detected from inline
// content, or from the file extension as a last resort, and a missing
// attachment type is inferred from the MIME type. Returns a new slice; the
// input is not modified.
func NormalizeUploads(ctx context.Context, uploads []Upload, currentTurn int) []Item {
	if len(uploads) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)
	items := make([]Item, 0, len(uploads))
	display := 0
	for i := range uploads {
		up := &uploads[i]
		if strings.TrimSpace(up.URL) == "" && len(up.Data) == 0 {
			log.Debug("skipping upload without content", "position", i, "file_name", up.FileName)
			continue
		}
		display++
		items = append(items, Item{
			Attachment: conversation.Attachment{
				Type:         uploadType(up),
				URL:          strings.TrimSpace(up.URL),
				FileName:     up.FileName,
				MimeType:     uploadMIME(up),
				PersistentID: up.PersistentID,
			},
			TurnIndex:    currentTurn,
			Source:       SourceUserUpload,
			DisplayIndex: display,
			SemanticTags: SemanticTags(up.FileName),
			IsReinjected: up.Reinjected,
		})
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

func uploadMIME(up *Upload) string {
	if up.MimeType != "" {
		return up.MimeType
	}
	if mt := detectMIME(up.Data); mt != "" {
		return mt
	}
	return mimeByFileName(up.FileName)
}

func uploadType(up *Upload) conversation.AttachmentType {
	if up.Type != "" {
		return up.Type
	}
	if t, ok := conversation.InferAttachmentType(uploadMIME(up)); ok {
		return t
	}
	return ""
}
