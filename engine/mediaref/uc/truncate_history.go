package uc

import (
	"context"
	"errors"

	"github.com/brandloom/brandloom/engine/conversation"
	"github.com/brandloom/brandloom/engine/core"
	"github.com/brandloom/brandloom/engine/mediaref/metrics"
	"github.com/brandloom/brandloom/pkg/config"
)

var _ core.Usecase[*TruncateHistoryOutput] = (*TruncateHistory)(nil)

// TruncateHistoryInput asks for the newest history suffix fitting the budget,
// independent of any reference resolution.
type TruncateHistoryInput struct {
	History     []conversation.Message `json:"history"`
	TokenBudget int                    `json:"token_budget"`
	HasNewMedia bool                   `json:"has_new_media"`
}

// TruncateHistoryOutput reports the kept slice and how many messages fell off
// the old end.
type TruncateHistoryOutput struct {
	History []conversation.Message `json:"history"`
	Kept    int                    `json:"kept"`
	Dropped int                    `json:"dropped"`
}

// TruncateHistory use case for standalone budget-fit truncation.
type TruncateHistory struct {
	input *TruncateHistoryInput
}

// NewTruncateHistory creates a new truncate history use case.
func NewTruncateHistory(input *TruncateHistoryInput) *TruncateHistory {
	return &TruncateHistory{input: input}
}

// Execute truncates the history to the budget.
func (uc *TruncateHistory) Execute(ctx context.Context) (*TruncateHistoryOutput, error) {
	if uc.input == nil {
		return nil, errors.New("truncate history input cannot be nil")
	}
	cfg := config.FromContext(ctx)
	tokenBudget := uc.input.TokenBudget
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget(cfg)
	}
	kept := allocatorFromConfig(ctx, cfg).
		Truncate(ctx, uc.input.History, tokenBudget, uc.input.HasNewMedia)
	dropped := len(uc.input.History) - len(kept)
	metrics.RecordTruncation(ctx, dropped)
	return &TruncateHistoryOutput{History: kept, Kept: len(kept), Dropped: dropped}, nil
}
