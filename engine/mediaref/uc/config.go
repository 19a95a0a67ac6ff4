package uc

import (
	"context"

	"github.com/brandloom/brandloom/engine/budget"
	"github.com/brandloom/brandloom/engine/mediaref"
	"github.com/brandloom/brandloom/pkg/config"
	"github.com/brandloom/brandloom/pkg/logger"
)

// thresholdsFromConfig maps the resolver configuration section onto the
// resolver's tuning struct. Out-of-range values are corrected by the
// resolver's own defaulting, so this mapping stays a plain copy.
func thresholdsFromConfig(cfg *config.Config) mediaref.Thresholds {
	if cfg == nil {
		return mediaref.DefaultThresholds()
	}
	return mediaref.Thresholds{
		NewUploadConfidence:     cfg.Resolver.NewUploadConfidence,
		SemanticConfidenceCap:   cfg.Resolver.SemanticConfidenceCap,
		MostRecentConfidence:    cfg.Resolver.MostRecentConfidence,
		DisambiguationThreshold: cfg.Resolver.DisambiguationThreshold,
		MinTagOverlap:           cfg.Resolver.MinTagOverlap,
		MaxOptions:              cfg.Resolver.MaxOptions,
	}
}

// allocatorFromConfig builds an allocator from the budget configuration
// section. When the tokenizer is enabled but its encoding cannot be loaded the
// allocator falls back to estimation with a warning rather than failing the
// request.
func allocatorFromConfig(ctx context.Context, cfg *config.Config) *budget.Allocator {
	opts := budget.Options{}
	if cfg != nil {
		opts.Strategy = estimationStrategy(cfg.Budget.Strategy)
		opts.CharsPerToken = cfg.Budget.CharsPerToken
		opts.AttachmentTokens = cfg.Budget.AttachmentTokens
		opts.AggressiveFactor = cfg.Budget.AggressiveFactor
		if cfg.Budget.UseTokenizer {
			counter, err := budget.CachedTiktokenCounter(cfg.Budget.Encoding)
			if err != nil {
				logger.FromContext(ctx).Warn("token counter unavailable, falling back to estimation",
					"encoding", cfg.Budget.Encoding,
					"error", err,
				)
			} else {
				opts.Counter = counter
			}
		}
	}
	return budget.NewAllocator(opts)
}

func estimationStrategy(name string) budget.EstimationStrategy {
	switch name {
	case "unicode_aware":
		return budget.UnicodeEstimation
	case "chinese":
		return budget.ChineseEstimation
	case "conservative":
		return budget.ConservativeEstimation
	default:
		return budget.EnglishEstimation
	}
}

// defaultTokenBudget returns the configured fallback context window size for
// requests that do not state one.
func defaultTokenBudget(cfg *config.Config) int {
	if cfg != nil && cfg.Budget.DefaultTokenLimit > 0 {
		return cfg.Budget.DefaultTokenLimit
	}
	return config.Default().Budget.DefaultTokenLimit
}
