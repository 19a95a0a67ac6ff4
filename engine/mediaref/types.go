package mediaref

import (
	"github.com/brandloom/brandloom/engine/media"
)

// Method names the strategy that produced a resolution.
type Method string

const (
	MethodExplicitReinjection Method = "explicit_reinjection"
	MethodExplicitIndex       Method = "explicit_index"
	MethodNewUploadOnly       Method = "new_upload_only"
	MethodSemanticTagMatch    Method = "semantic_tag_match"
	MethodMostRecent          Method = "most_recent"
	MethodNone                Method = "none"
)

// Disambiguation reasons surfaced to the agent layer.
const (
	ReasonAmbiguousSemanticMatch = "ambiguous_semantic_match"
	ReasonLowConfidence          = "low_confidence"
)

// Resolution describes how the winning media set was chosen.
type Resolution struct {
	Method     Method         `json:"method"`
	Confidence float64        `json:"confidence"`
	UserIntent string         `json:"user_intent,omitempty"`
	Debug      map[string]any `json:"debug,omitempty"`
}

// Option is one candidate offered to the user during disambiguation.
type Option struct {
	Item       media.Item `json:"item"`
	Reason     string     `json:"reason"`
	Confidence float64    `json:"confidence"`
}

// Disambiguation asks the agent to clarify with the user instead of acting.
// This is single-shot: the policy holds no state across turns, the host
// simply sends the clarified utterance as a new request.
type Disambiguation struct {
	Required        bool     `json:"required"`
	Reason          string   `json:"reason,omitempty"`
	SuggestedAction string   `json:"suggested_action,omitempty"`
	Options         []Option `json:"options,omitempty"`
}

// Context is the resolver's complete answer for one turn. When
// Disambiguation.Required is set, ResolvedMedia is empty and callers must not
// act on it.
type Context struct {
	ResolvedMedia  []media.Item   `json:"resolved_media,omitempty"`
	Resolution     Resolution     `json:"resolution"`
	Disambiguation Disambiguation `json:"disambiguation"`
}

// Candidate is a scored item considered by a strategy, kept for the
// disambiguation policy to inspect.
type Candidate struct {
	Item       media.Item `json:"item"`
	Score      int        `json:"score"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
}
