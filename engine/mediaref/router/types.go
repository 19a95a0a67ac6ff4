package mrefrouter

import "encoding/json"

// ResolveRequest is the per-turn payload from the host application. History
// and uploads stay raw so the tolerant decoders can salvage partially
// malformed entries instead of failing the whole request.
type ResolveRequest struct {
	History     json.RawMessage `json:"history"`
	Uploads     json.RawMessage `json:"uploads,omitempty"`
	Utterance   string          `json:"utterance"`
	CurrentTurn *int            `json:"current_turn,omitempty"`
	TokenBudget int             `json:"token_budget,omitempty"`
}

// TruncateRequest fits an existing history to a token budget without running
// reference resolution.
type TruncateRequest struct {
	History     json.RawMessage `json:"history"`
	TokenBudget int             `json:"token_budget,omitempty"`
	HasNewMedia bool            `json:"has_new_media,omitempty"`
}
