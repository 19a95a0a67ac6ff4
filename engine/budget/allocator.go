package budget

import (
	"context"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/pkg/logger"
)

// Defaults for the allocator's cost model. Deployments tune these through
// configuration; the values here keep behavior stable when none is given.
const (
	DefaultCharsPerToken    = 4
	DefaultAttachmentTokens = 256
	DefaultAggressiveFactor = 0.6
)

// Options configures an Allocator. Zero values fall back to the defaults
// above; Counter is optional and enables precise counting with heuristic
// fallback.
type Options struct {
	Strategy         EstimationStrategy
	CharsPerToken    int
	AttachmentTokens int
	AggressiveFactor float64
	Counter          TokenCounter
}

// Allocator decides which slice of the conversation history fits into a model
// context window. It holds no request state; the same inputs always produce
// the same output.
type Allocator struct {
	counter          *CounterWithFallback
	attachmentTokens int
	aggressiveFactor float64
}

// NewAllocator creates an allocator from the given options.
func NewAllocator(opts Options) *Allocator {
	if opts.AttachmentTokens <= 0 {
		opts.AttachmentTokens = DefaultAttachmentTokens
	}
	if opts.AggressiveFactor <= 0 || opts.AggressiveFactor > 1 {
		opts.AggressiveFactor = DefaultAggressiveFactor
	}
	return &Allocator{
		counter:          NewCounterWithFallback(opts.Counter, NewEstimator(opts.Strategy, opts.CharsPerToken)),
		attachmentTokens: opts.AttachmentTokens,
		aggressiveFactor: opts.AggressiveFactor,
	}
}

// MessageTokens estimates the context cost of one message: its content tokens
// plus a fixed surcharge per attachment.
func (a *Allocator) MessageTokens(ctx context.Context, msg *conversation.Message) int {
	return a.counter.CountTokens(ctx, msg.Content) + len(msg.Attachments)*a.attachmentTokens
}

// HistoryTokens estimates the total context cost of a history slice.
func (a *Allocator) HistoryTokens(ctx context.Context, history []conversation.Message) int {
	total := 0
	for i := range history {
		total += a.MessageTokens(ctx, &history[i])
	}
	return total
}

// Truncate returns the newest suffix of the history that fits the token
// budget. When hasNewMedia is set the budget is tightened by the aggressive
// factor to leave headroom for fresh media. Messages are only ever dropped
// from the oldest end, order is preserved, and the most recent message is
// always kept even when it alone exceeds the budget. A history that already
// fits is returned as-is, so the operation is idempotent. An empty history
// yields nil and a non-positive budget keeps only the most recent message.
func (a *Allocator) Truncate(
	ctx context.Context,
	history []conversation.Message,
	tokenBudget int,
	hasNewMedia bool,
) []conversation.Message {
	if len(history) == 0 {
		return nil
	}
	effective := tokenBudget
	if hasNewMedia {
		effective = int(float64(tokenBudget) * a.aggressiveFactor)
	}
	newest := len(history) - 1
	if effective <= 0 {
		return history[newest:]
	}
	total := a.MessageTokens(ctx, &history[newest])
	cut := newest
	for i := newest - 1; i >= 0; i-- {
		cost := a.MessageTokens(ctx, &history[i])
		if total+cost > effective {
			break
		}
		total += cost
		cut = i
	}
	if cut > 0 {
		logger.FromContext(ctx).Debug("truncated conversation history",
			"kept", len(history)-cut,
			"dropped", cut,
			"tokens", total,
			"budget", effective,
			"has_new_media", hasNewMedia,
		)
	}
	return history[cut:]
}
