package media

import (
	"strings"

	"github.com/brandloom/brandloom/engine/conversation"
)

// Source records which side of the conversation a media item came from.
type Source string

const (
	SourceUserUpload         Source = "user_upload"
	SourceAssistantGenerated Source = "assistant_generated"
)

// Role is the part a media item plays in a resolved turn. It stays empty
// until resolution assigns it.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleReference Role = "reference"
	RoleMask      Role = "mask"
)

// Item is a conversation attachment enriched with the ordering and semantic
// metadata the resolver operates on. Items are derived fresh from the request
// inputs every time and are never persisted or mutated in place.
type Item struct {
	conversation.Attachment

	TurnIndex    int      `json:"turn_index"`
	Source       Source   `json:"source"`
	DisplayIndex int      `json:"display_index"`
	SemanticTags []string `json:"semantic_tags,omitempty"`
	IsReinjected bool     `json:"is_reinjected,omitempty"`
	Role         Role     `json:"role,omitempty"`
}

// IsMask reports whether the item is an editing mask. Masks are detected by
// file name and never become the primary or a reference of a resolved turn.
func (i Item) IsMask() bool {
	return strings.Contains(strings.ToLower(i.FileName), "mask")
}

// WithRole returns a copy of the item with the role set.
func (i Item) WithRole(role Role) Item {
	i.Role = role
	return i
}
