package conversation

import (
	"errors"
	"fmt"
	"strings"
)

// AttachmentType discriminates the media kind of a stored attachment.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
	AttachmentAudio    AttachmentType = "audio"
)

// Attachment is a media file as persisted on a conversation message. The URL
// points at the host's storage; the engine never fetches it.
type Attachment struct {
	Type         AttachmentType `json:"type"`
	URL          string         `json:"url"`
	FileName     string         `json:"file_name,omitempty"`
	MimeType     string         `json:"mime_type,omitempty"`
	PersistentID string         `json:"persistent_id,omitempty"`
}

// NormalizeAttachmentType maps a raw type string, including common aliases,
// to a known AttachmentType.
func NormalizeAttachmentType(v string) (AttachmentType, error) {
	if v == "" {
		return "", errors.New("type is required")
	}
	t := strings.ToLower(strings.TrimSpace(v))
	switch t {
	case "img", "photo", "picture":
		t = string(AttachmentImage)
	case "pdf", "doc", "docx":
		t = string(AttachmentDocument)
	case "movie", "clip":
		t = string(AttachmentVideo)
	case "voice", "sound":
		t = string(AttachmentAudio)
	}
	switch AttachmentType(t) {
	case AttachmentImage, AttachmentVideo, AttachmentDocument, AttachmentAudio:
		return AttachmentType(t), nil
	default:
		return "", fmt.Errorf("unknown attachment type: %s", v)
	}
}

// InferAttachmentType derives the attachment type from a MIME type.
func InferAttachmentType(mime string) (AttachmentType, bool) {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(m, "image/"):
		return AttachmentImage, true
	case strings.HasPrefix(m, "video/"):
		return AttachmentVideo, true
	case strings.HasPrefix(m, "audio/"):
		return AttachmentAudio, true
	case m == "application/pdf" || strings.HasPrefix(m, "text/"):
		return AttachmentDocument, true
	default:
		return "", false
	}
}

// Validate reports whether the attachment is usable for later reference.
// A blank URL is the invalidity condition; such attachments are dropped at
// ingest boundaries rather than failing the request.
func (a *Attachment) Validate() error {
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("%s attachment requires 'url'", a.Type)
	}
	return nil
}
