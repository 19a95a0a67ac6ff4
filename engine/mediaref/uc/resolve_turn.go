package uc

import (
	"context"
	"errors"
	"time"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/engine/core"
	"github.com/brandloom/brandloom/engine/media"
	"github.com/brandloom/brandloom/engine/mediaref"
	"github.com/brandloom/brandloom/engine/mediaref/metrics"
	"github.com/brandloom/brandloom/pkg/config"
)

var _ core.Usecase[*ResolveTurnOutput] = (*ResolveTurn)(nil)

// ResolveTurnInput carries everything the host sends for one turn. CurrentTurn
// is the zero-based index of the turn being composed; a negative value means
// the turn follows the given history. TokenBudget falls back to the configured
// default when non-positive.
type ResolveTurnInput struct {
	History     []conversation.Message `json:"history"`
	Uploads     []media.Upload         `json:"uploads,omitempty"`
	Utterance   string                 `json:"utterance"`
	CurrentTurn int                    `json:"current_turn"`
	TokenBudget int                    `json:"token_budget"`
}

// ResolveTurnOutput is the resolved context plus the history slice that fits
// the token budget. TruncatedHistory is nil when disambiguation is required,
// since the host will not invoke the agent on this turn.
type ResolveTurnOutput struct {
	Context          mediaref.Context       `json:"context"`
	TruncatedHistory []conversation.Message `json:"truncated_history,omitempty"`
	RegistrySize     int                    `json:"registry_size"`
	UploadCount      int                    `json:"upload_count"`
	ElapsedMS        int64                  `json:"elapsed_ms"`
}

// ResolveTurn use case for resolving one conversational turn end to end:
// registry build, upload normalization, reference resolution, disambiguation
// and budget-fit truncation.
type ResolveTurn struct {
	input *ResolveTurnInput
}

// NewResolveTurn creates a new resolve turn use case.
func NewResolveTurn(input *ResolveTurnInput) *ResolveTurn {
	return &ResolveTurn{input: input}
}

// Execute runs the resolution pipeline. Content problems never error; they
// degrade to lower-confidence resolutions inside the resolver.
func (uc *ResolveTurn) Execute(ctx context.Context) (*ResolveTurnOutput, error) {
	if uc.input == nil {
		return nil, errors.New("resolve turn input cannot be nil")
	}
	start := time.Now()
	cfg := config.FromContext(ctx)
	thresholds := thresholdsFromConfig(cfg)

	registry := media.BuildRegistry(ctx, uc.input.History)
	currentTurn := uc.input.CurrentTurn
	if currentTurn < 0 {
		currentTurn = len(uc.input.History)
	}
	uploads := media.NormalizeUploads(ctx, uc.input.Uploads, currentTurn)

	resolved, candidates := mediaref.NewResolver(thresholds).
		Resolve(ctx, uc.input.Utterance, uploads, registry)
	resolved = mediaref.ApplyDisambiguation(ctx, resolved, candidates, thresholds)

	out := &ResolveTurnOutput{
		Context:      resolved,
		RegistrySize: len(registry),
		UploadCount:  len(uploads),
	}
	if !resolved.Disambiguation.Required {
		tokenBudget := uc.input.TokenBudget
		if tokenBudget <= 0 {
			tokenBudget = defaultTokenBudget(cfg)
		}
		out.TruncatedHistory = allocatorFromConfig(ctx, cfg).
			Truncate(ctx, uc.input.History, tokenBudget, len(uploads) > 0)
		metrics.RecordTruncation(ctx, len(uc.input.History)-len(out.TruncatedHistory))
	}
	metrics.RecordResolveDuration(ctx, time.Since(start).Seconds())
	out.ElapsedMS = time.Since(start).Milliseconds()
	return out, nil
}
