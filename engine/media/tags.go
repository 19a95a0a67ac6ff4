package media

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

// SemanticTags derives matchable tags from a file name: the extension is
// stripped, the remainder is slugified (lowercased, transliterated, split on
// separators), and tokens that are purely numeric or a single character are
// dropped. Tags are deduplicated preserving first occurrence.
func SemanticTags(fileName string) []string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if strings.TrimSpace(base) == "" {
		return nil
	}
	parts := strings.Split(slug.Make(base), "-")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if len(p) < 2 || isNumeric(p) {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		tags = append(tags, p)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
