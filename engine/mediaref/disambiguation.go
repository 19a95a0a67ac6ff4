package mediaref

import (
	"context"
	"sort"

	"github.com/brandloom/brandloom/engine/mediaref/metrics"
	"github.com/brandloom/brandloom/pkg/logger"
)

// ApplyDisambiguation decides whether the agent must ask the user to clarify
// instead of acting on the resolution. It triggers on a tied semantic match,
// or on a low-confidence winner with more than one plausible candidate. The
// returned context either passes through untouched or has its resolved media
// cleared and a capped, confidence-sorted option list attached. The policy is
// single-shot: no clarification state survives the call, the host simply
// submits the user's answer as a fresh utterance.
func ApplyDisambiguation(ctx context.Context, res Context, cands []Candidate, th Thresholds) Context {
	th = th.withDefaults()
	reason := triggerReason(res, cands, th)
	if reason == "" {
		return res
	}
	res.ResolvedMedia = nil
	res.Disambiguation = Disambiguation{
		Required:        true,
		Reason:          reason,
		SuggestedAction: suggestedAction(reason),
		Options:         buildOptions(cands, th.MaxOptions),
	}
	metrics.RecordDisambiguation(ctx, reason)
	logger.FromContext(ctx).Debug("disambiguation required",
		"reason", reason,
		"options", len(res.Disambiguation.Options),
	)
	return res
}

func triggerReason(res Context, cands []Candidate, th Thresholds) string {
	if res.Resolution.Method == MethodSemanticTagMatch && len(res.ResolvedMedia) == 0 && len(cands) > 1 {
		return ReasonAmbiguousSemanticMatch
	}
	if res.Resolution.Confidence < th.DisambiguationThreshold && plausibleCount(cands) > 1 {
		return ReasonLowConfidence
	}
	return ""
}

func plausibleCount(cands []Candidate) int {
	n := 0
	for i := range cands {
		if cands[i].Confidence > 0 {
			n++
		}
	}
	return n
}

func suggestedAction(reason string) string {
	if reason == ReasonAmbiguousSemanticMatch {
		return "Ask the user which of the matching files they meant."
	}
	return "Confirm the intended media with the user before acting."
}

// buildOptions sorts candidates by descending confidence, breaking ties by
// overlap score and then by display index so the option order is stable, and
// caps the list.
func buildOptions(cands []Candidate, maxOptions int) []Option {
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Item.DisplayIndex < sorted[j].Item.DisplayIndex
	})
	if len(sorted) > maxOptions {
		sorted = sorted[:maxOptions]
	}
	options := make([]Option, 0, len(sorted))
	for _, c := range sorted {
		options = append(options, Option{Item: c.Item, Reason: c.Reason, Confidence: c.Confidence})
	}
	return options
}
