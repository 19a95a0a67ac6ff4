package media

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectMIME determines a MIME type from inline content using stdlib
// detection first and falling back to the broader mimetype library when
// ambiguous. The input should contain at least the first 512 bytes of
// content when available.
func detectMIME(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	mt := http.DetectContentType(head)
	if mt != "application/octet-stream" {
		return mt
	}
	return mimetype.Detect(head).String()
}

// mimeByFileName resolves a MIME type from the file extension. Used when an
// upload carries neither a declared MIME type nor inline content.
func mimeByFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return ""
	}
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		return base
	}
	return mt
}
