package mediaref

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// mediaNounPattern anchors numbers and articles to an actual media mention.
// Longer alternatives come first so "picture" is not consumed as "pic".
const mediaNounPattern = `(?:image|img|photo|picture|pic|video|clip|movie|document|doc|pdf|file|audio|upload|attachment)`

var (
	nounIndexRe   = regexp.MustCompile(`\b` + mediaNounPattern + `s?\s*#?\s*(\d{1,3})\b`)
	ordinalNumRe  = regexp.MustCompile(`\b(\d{1,3})(?:st|nd|rd|th)\s+` + mediaNounPattern + `\b`)
	ordinalWordRe = regexp.MustCompile(
		`\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\s+` + mediaNounPattern + `\b`,
	)
	implicitCueRe = regexp.MustCompile(
		`\b(?:it|its|that|this|last|latest|previous|same|again)\b|\bthe\s+` + mediaNounPattern + `s?\b`,
	)
)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

// utteranceStopwords are function words and filler verbs that carry no
// meaning for tag matching. Media nouns stay in: a mention like "image"
// counts toward the utterance length the overlap ratio is computed against.
var utteranceStopwords = map[string]struct{}{
	"an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "can": {}, "could": {}, "do": {}, "does": {}, "for": {},
	"from": {}, "has": {}, "have": {}, "if": {}, "in": {}, "into": {},
	"is": {}, "it": {}, "its": {}, "just": {}, "let": {}, "me": {}, "my": {},
	"of": {}, "on": {}, "one": {}, "or": {}, "our": {}, "please": {},
	"shall": {}, "should": {}, "so": {}, "some": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "to": {}, "up": {}, "us": {},
	"use": {}, "want": {}, "we": {}, "what": {}, "which": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// ExtractExplicitIndex finds a 1-based ordinal bound to a media noun, such as
// "image 2", "photo #3" or "the 2nd video". When the utterance carries more
// than one such mention the first pattern match wins.
func ExtractExplicitIndex(utterance string) (int, bool) {
	lower := strings.ToLower(utterance)
	if m := nounIndexRe.FindStringSubmatch(lower); m != nil {
		return atoiSafe(m[1])
	}
	if m := ordinalNumRe.FindStringSubmatch(lower); m != nil {
		return atoiSafe(m[1])
	}
	if m := ordinalWordRe.FindStringSubmatch(lower); m != nil {
		n, ok := ordinalWords[m[1]]
		return n, ok
	}
	return 0, false
}

// HasImplicitReference reports whether the utterance points at earlier media
// without naming it, e.g. "remove its background", "crop that one", "use the
// image". Returns the matched cue for debugging.
func HasImplicitReference(utterance string) (string, bool) {
	cue := implicitCueRe.FindString(strings.ToLower(utterance))
	return cue, cue != ""
}

// Tokenize normalizes an utterance the same way file names are turned into
// semantic tags, so both sides of an overlap comparison share one
// vocabulary: slugified, split, with stopwords, single characters and pure
// numbers dropped. Tokens are deduplicated preserving first occurrence.
func Tokenize(utterance string) []string {
	slugged := slug.Make(utterance)
	if slugged == "" {
		return nil
	}
	parts := strings.Split(slugged, "-")
	tokens := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if len(p) < 2 || numericToken(p) {
			continue
		}
		if _, stop := utteranceStopwords[p]; stop {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tokens = append(tokens, p)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// TokenCount reports how many words the utterance carries before stopword
// filtering, under the same slug normalization as Tokenize. The overlap ratio
// divides by this count, so filler words dilute confidence instead of
// inflating it: "use the mountain photo" has four tokens, not two.
func TokenCount(utterance string) int {
	slugged := slug.Make(utterance)
	if slugged == "" {
		return 0
	}
	count := 0
	for _, p := range strings.Split(slugged, "-") {
		if len(p) < 2 || numericToken(p) {
			continue
		}
		count++
	}
	return count
}

func numericToken(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func atoiSafe(s string) (int, bool) {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n, n > 0
}
