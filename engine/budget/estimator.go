package budget

import (
	"context"
	"unicode/utf8"
)

// EstimationStrategy selects the heuristic used when no precise counter is
// configured or the precise counter fails.
type EstimationStrategy string

const (
	// EnglishEstimation uses the standard 1 token ≈ 4 characters for English text.
	EnglishEstimation EstimationStrategy = "english"
	// UnicodeEstimation uses rune count based estimation for Unicode-heavy text.
	UnicodeEstimation EstimationStrategy = "unicode"
	// ChineseEstimation uses optimized estimation for CJK text.
	ChineseEstimation EstimationStrategy = "chinese"
	// ConservativeEstimation assumes higher token density to overestimate for safety.
	ConservativeEstimation EstimationStrategy = "conservative"
)

// TokenCounter counts tokens precisely. Implementations may fail (missing
// encoding data, network-backed vocabularies); callers wrap them with a
// fallback estimator.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
	GetEncoding() string
}

// Estimator is the deterministic token heuristic. The english strategy
// divides byte length by a configurable divisor so deployments can tune the
// character-per-token ratio without swapping strategies.
type Estimator struct {
	strategy      EstimationStrategy
	charsPerToken int
}

// NewEstimator creates an estimator with the given strategy and divisor.
// Zero values select the english strategy and the standard divisor of 4.
func NewEstimator(strategy EstimationStrategy, charsPerToken int) *Estimator {
	if strategy == "" {
		strategy = EnglishEstimation
	}
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &Estimator{strategy: strategy, charsPerToken: charsPerToken}
}

// EstimateTokens estimates the token count of text under the configured strategy.
func (e *Estimator) EstimateTokens(_ context.Context, text string) int {
	if text == "" {
		return 0
	}
	switch e.strategy {
	case UnicodeEstimation:
		return utf8.RuneCountInString(text) / 2
	case ChineseEstimation:
		return (utf8.RuneCountInString(text) * 2) / 3
	case ConservativeEstimation:
		return len(text) / 3
	default:
		return len(text) / e.charsPerToken
	}
}

// CounterWithFallback wraps an optional precise counter with the heuristic
// estimator. Counting never fails: on counter error the estimate is used.
type CounterWithFallback struct {
	counter   TokenCounter
	estimator *Estimator
}

// NewCounterWithFallback creates a counter that degrades to estimation.
// A nil counter makes the heuristic authoritative.
func NewCounterWithFallback(counter TokenCounter, estimator *Estimator) *CounterWithFallback {
	if estimator == nil {
		estimator = NewEstimator(EnglishEstimation, 0)
	}
	return &CounterWithFallback{counter: counter, estimator: estimator}
}

// CountTokens counts with the precise counter when available, falling back to
// the estimator on error.
func (c *CounterWithFallback) CountTokens(ctx context.Context, text string) int {
	if c.counter != nil {
		if count, err := c.counter.CountTokens(ctx, text); err == nil {
			return count
		}
	}
	return c.estimator.EstimateTokens(ctx, text)
}

// GetEncoding names the active encoding, or "estimation" when only the
// heuristic is in play.
func (c *CounterWithFallback) GetEncoding() string {
	if c.counter != nil {
		return c.counter.GetEncoding()
	}
	return "estimation"
}
