package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/brandloom/brandloom/pkg/logger"
)

// DecodeHistory parses the host application's conversation payload into
// ordered messages. The decoder is tolerant: unknown roles default to user,
// attachments lacking a URL are skipped with a debug log, and attachment types
// are inferred from the MIME type when the declared type is unrecognized.
// Only a root that is not a JSON array is an error.
func DecodeHistory(ctx context.Context, raw []byte) ([]Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, errors.New("history must be a JSON array")
	}
	log := logger.FromContext(ctx)
	entries := root.Array()
	msgs := make([]Message, 0, len(entries))
	for i, entry := range entries {
		msg := Message{
			Role:      roleOrDefault(pick(entry, "role")),
			Content:   pick(entry, "content", "text"),
			TurnIndex: i,
		}
		for j, rawAtt := range entry.Get("attachments").Array() {
			att, err := decodeAttachment(rawAtt)
			if err != nil {
				log.Debug("skipping malformed attachment", "turn", i, "attachment", j, "error", err)
				continue
			}
			msg.Attachments = append(msg.Attachments, att)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func roleOrDefault(v string) Role {
	role, err := ParseRole(v)
	if err != nil {
		return RoleUser
	}
	return role
}

func decodeAttachment(r gjson.Result) (Attachment, error) {
	url := strings.TrimSpace(pick(r, "url", "src"))
	if url == "" {
		return Attachment{}, errors.New("missing url")
	}
	att := Attachment{
		URL:          url,
		FileName:     pick(r, "file_name", "fileName", "filename", "name"),
		MimeType:     pick(r, "mime_type", "mimeType", "mime"),
		PersistentID: pick(r, "persistent_id", "persistentId", "id"),
	}
	if t, err := NormalizeAttachmentType(pick(r, "type")); err == nil {
		att.Type = t
	} else if inferred, ok := InferAttachmentType(att.MimeType); ok {
		att.Type = inferred
	}
	return att, nil
}

// pick returns the first non-empty value among the given keys. The host's
// frontend sends camelCase keys while stored payloads use snake_case, so both
// spellings are accepted.
func pick(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
