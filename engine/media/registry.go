package media

import (
	"context"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/pkg/logger"
)

// BuildRegistry scans the conversation chronologically and produces one item
// per valid attachment. Display indices are 1-based and increase in scan
// order across the whole history, so they are strictly ordered by turn and by
// attachment position within a turn. Re-injected media are not deduplicated;
// each occurrence is its own entry. Attachments that fail validation are
// skipped with a debug log. The registry is a pure function of the history:
// the same input always yields the same registry.
func BuildRegistry(ctx context.Context, history []conversation.Message) []Item {
	if len(history) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)
	items := make([]Item, 0, len(history))
	display := 0
	for turn := range history {
		msg := &history[turn]
		source := SourceUserUpload
		if msg.Role == conversation.RoleAssistant {
			source = SourceAssistantGenerated
		}
		for j := range msg.Attachments {
			att := msg.Attachments[j]
			if err := att.Validate(); err != nil {
				log.Debug("skipping malformed attachment", "turn", turn, "attachment", j, "error", err)
				continue
			}
			display++
			items = append(items, Item{
				Attachment:   att,
				TurnIndex:    turn,
				Source:       source,
				DisplayIndex: display,
				SemanticTags: SemanticTags(att.FileName),
			})
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
