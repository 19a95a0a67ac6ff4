package media

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/pkg/logger"
)

// Upload is a file the user attached to the current turn's input box, before
// normalization. Either inline data or a storage URL must be present for the
// upload to survive normalization. Reinjected marks media the user explicitly
// dragged back into the conversation from an earlier turn.
type Upload struct {
	Type         conversation.AttachmentType `json:"type,omitempty"`
	URL          string                      `json:"url,omitempty"`
	FileName     string                      `json:"file_name,omitempty"`
	MimeType     string                      `json:"mime_type,omitempty"`
	Data         []byte                      `json:"data,omitempty"`
	PersistentID string                      `json:"persistent_id,omitempty"`
	Reinjected   bool                        `json:"reinjected,omitempty"`
}

// DecodeUploads parses the current turn's upload payload. Like the history
// decoder it is tolerant: unknown fields are ignored, inline data is accepted
// as base64, and both snake_case and camelCase keys are understood. Only a
// root that is not a JSON array is an error.
func DecodeUploads(ctx context.Context, raw []byte) ([]Upload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, errors.New("uploads must be a JSON array")
	}
	log := logger.FromContext(ctx)
	entries := root.Array()
	uploads := make([]Upload, 0, len(entries))
	for i, entry := range entries {
		up := Upload{
			URL:          strings.TrimSpace(pickString(entry, "url", "src")),
			FileName:     pickString(entry, "file_name", "fileName", "filename", "name"),
			MimeType:     pickString(entry, "mime_type", "mimeType", "mime"),
			PersistentID: pickString(entry, "persistent_id", "persistentId", "id"),
			Reinjected:   pickBool(entry, "reinjected", "is_reinjected", "isReinjected"),
		}
		if t, err := conversation.NormalizeAttachmentType(pickString(entry, "type")); err == nil {
			up.Type = t
		}
		if enc := pickString(entry, "data", "content"); enc != "" {
			data, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				log.Debug("ignoring undecodable inline data", "upload", i, "error", err)
			} else {
				up.Data = data
			}
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func pickString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func pickBool(r gjson.Result, keys ...string) bool {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v.Bool()
		}
	}
	return false
}
