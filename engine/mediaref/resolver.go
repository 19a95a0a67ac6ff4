package mediaref

import (
	"context"
	"strings"

	"github.com/brandloom/brandloom/engine/media"
	"github.com/brandloom/brandloom/engine/mediaref/metrics"
	"github.com/brandloom/brandloom/pkg/logger"
)

// Resolver maps a user utterance plus the turn's media pools to the set of
// items the agent should act on. It is stateless: every call works only on
// its arguments and the configured thresholds.
type Resolver struct {
	thresholds Thresholds
}

// NewResolver creates a resolver with the given tuning. Zero-valued fields
// fall back to DefaultThresholds.
func NewResolver(th Thresholds) *Resolver {
	return &Resolver{thresholds: th.withDefaults()}
}

// Resolve runs the strategy chain in precedence order and returns the first
// confident match along with every candidate the strategies considered. The
// chain: explicit re-injection, explicit index, new uploads, semantic tag
// match, most-recent fallback, none. Input slices are never mutated; winning
// items are returned as copies with roles assigned.
func (r *Resolver) Resolve(
	ctx context.Context,
	utterance string,
	uploads []media.Item,
	registry []media.Item,
) (Context, []Candidate) {
	res, cands := r.resolve(utterance, uploads, registry)
	metrics.RecordResolution(ctx, string(res.Resolution.Method))
	logger.FromContext(ctx).Debug("resolved media reference",
		"method", res.Resolution.Method,
		"confidence", res.Resolution.Confidence,
		"resolved", len(res.ResolvedMedia),
		"candidates", len(cands),
	)
	return res, cands
}

func (r *Resolver) resolve(utterance string, uploads, registry []media.Item) (Context, []Candidate) {
	if res, cands, ok := r.resolveReinjection(uploads); ok {
		return res, cands
	}
	if res, cands, ok := r.resolveExplicitIndex(utterance, uploads, registry); ok {
		return res, cands
	}
	if res, cands, ok := r.resolveNewUploads(uploads); ok {
		return res, cands
	}
	if res, cands, ok := r.resolveSemantic(utterance, registry); ok {
		return res, cands
	}
	if res, cands, ok := r.resolveMostRecent(utterance, registry); ok {
		return res, cands
	}
	return Context{
		Resolution: Resolution{Method: MethodNone, Confidence: 0, UserIntent: "no_media_reference"},
	}, nil
}

// resolveReinjection wins whenever the current turn carries explicitly
// re-injected media. Re-injection is the strongest possible signal and beats
// even an explicit index in the same utterance.
func (r *Resolver) resolveReinjection(uploads []media.Item) (Context, []Candidate, bool) {
	pool := make([]media.Item, 0, len(uploads))
	for i := range uploads {
		if uploads[i].IsReinjected {
			pool = append(pool, uploads[i])
		}
	}
	if len(pool) == 0 {
		return Context{}, nil, false
	}
	resolved := assignRoles(pool)
	cands := make([]Candidate, 0, len(pool))
	for _, item := range pool {
		cands = append(cands, Candidate{
			Item:       item,
			Confidence: explicitConfidence,
			Reason:     "explicitly re-injected this turn",
		})
	}
	return Context{
		ResolvedMedia: resolved,
		Resolution: Resolution{
			Method:     MethodExplicitReinjection,
			Confidence: explicitConfidence,
			UserIntent: "use_reinjected_media",
			Debug:      map[string]any{"reinjected": len(pool)},
		},
	}, cands, true
}

// resolveExplicitIndex binds a numbered mention to a display index. When the
// turn has uploads their local numbering shadows the registry's chronological
// numbering; an index beyond the local pool falls back to the registry. An
// index matching nothing falls through to the remaining strategies.
func (r *Resolver) resolveExplicitIndex(utterance string, uploads, registry []media.Item) (Context, []Candidate, bool) {
	index, ok := ExtractExplicitIndex(utterance)
	if !ok {
		return Context{}, nil, false
	}
	pool := "uploads"
	item, found := itemByDisplayIndex(uploads, index)
	if !found {
		pool = "registry"
		item, found = itemByDisplayIndex(registry, index)
	}
	if !found {
		return Context{}, nil, false
	}
	return Context{
		ResolvedMedia: assignRoles([]media.Item{item}),
		Resolution: Resolution{
			Method:     MethodExplicitIndex,
			Confidence: explicitConfidence,
			UserIntent: "select_by_index",
			Debug:      map[string]any{"index": index, "pool": pool},
		},
	}, []Candidate{{Item: item, Confidence: explicitConfidence, Reason: "matches the requested number"}}, true
}

// resolveNewUploads gives fresh uploads precedence over everything historical.
func (r *Resolver) resolveNewUploads(uploads []media.Item) (Context, []Candidate, bool) {
	if len(uploads) == 0 {
		return Context{}, nil, false
	}
	conf := r.thresholds.NewUploadConfidence
	cands := make([]Candidate, 0, len(uploads))
	for _, item := range uploads {
		cands = append(cands, Candidate{Item: item, Confidence: conf, Reason: "uploaded this turn"})
	}
	return Context{
		ResolvedMedia: assignRoles(uploads),
		Resolution: Resolution{
			Method:     MethodNewUploadOnly,
			Confidence: conf,
			UserIntent: "use_new_uploads",
			Debug:      map[string]any{"uploads": len(uploads)},
		},
	}, cands, true
}

// resolveSemantic scores registry items by how many utterance tokens appear
// in their tags. A unique best overlap wins with confidence overlap divided
// by utterance token count, capped below certainty. A tied best overlap
// returns all candidates and no winner so the disambiguation policy can ask
// the user.
func (r *Resolver) resolveSemantic(utterance string, registry []media.Item) (Context, []Candidate, bool) {
	tokens := Tokenize(utterance)
	if len(tokens) == 0 || len(registry) == 0 {
		return Context{}, nil, false
	}
	// The ratio divides by the unfiltered word count so that a short anchor in
	// a long sentence scores lower than a description that is mostly anchors.
	total := TokenCount(utterance)
	cands := make([]Candidate, 0, 4)
	best, bestCount, bestIdx := 0, 0, -1
	for i := range registry {
		shared := sharedTags(tokens, registry[i].SemanticTags)
		overlap := len(shared)
		if overlap < r.thresholds.MinTagOverlap {
			continue
		}
		cands = append(cands, Candidate{
			Item:       registry[i],
			Score:      overlap,
			Confidence: r.semanticConfidence(overlap, total),
			Reason:     "shares tags: " + strings.Join(shared, ", "),
		})
		switch {
		case overlap > best:
			best, bestCount, bestIdx = overlap, 1, i
		case overlap == best:
			bestCount++
		}
	}
	if len(cands) == 0 {
		return Context{}, nil, false
	}
	resolution := Resolution{
		Method:     MethodSemanticTagMatch,
		Confidence: r.semanticConfidence(best, total),
		UserIntent: "match_by_description",
		Debug:      map[string]any{"overlap": best, "utterance_tokens": total, "tied": bestCount > 1},
	}
	if bestCount > 1 {
		return Context{Resolution: resolution}, cands, true
	}
	return Context{
		ResolvedMedia: assignRoles([]media.Item{registry[bestIdx]}),
		Resolution:    resolution,
	}, cands, true
}

// resolveMostRecent falls back to the newest non-mask media when the
// utterance points at something without naming it.
func (r *Resolver) resolveMostRecent(utterance string, registry []media.Item) (Context, []Candidate, bool) {
	cue, ok := HasImplicitReference(utterance)
	if !ok {
		return Context{}, nil, false
	}
	for i := len(registry) - 1; i >= 0; i-- {
		if registry[i].IsMask() {
			continue
		}
		item := registry[i]
		conf := r.thresholds.MostRecentConfidence
		return Context{
			ResolvedMedia: assignRoles([]media.Item{item}),
			Resolution: Resolution{
				Method:     MethodMostRecent,
				Confidence: conf,
				UserIntent: "refer_to_most_recent",
				Debug:      map[string]any{"cue": cue},
			},
		}, []Candidate{{Item: item, Confidence: conf, Reason: "most recent media in the conversation"}}, true
	}
	return Context{}, nil, false
}

func (r *Resolver) semanticConfidence(overlap, tokenCount int) float64 {
	conf := float64(overlap) / float64(tokenCount)
	if conf > r.thresholds.SemanticConfidenceCap {
		conf = r.thresholds.SemanticConfidenceCap
	}
	return conf
}

// assignRoles copies the winning items and assigns their roles. Masks are
// tagged and excluded from primary selection; the first non-mask item becomes
// the primary and the remaining non-mask items become references. A set of
// only masks has no primary.
func assignRoles(items []media.Item) []media.Item {
	out := make([]media.Item, 0, len(items))
	primaryTaken := false
	for _, item := range items {
		switch {
		case item.IsMask():
			out = append(out, item.WithRole(media.RoleMask))
		case !primaryTaken:
			primaryTaken = true
			out = append(out, item.WithRole(media.RolePrimary))
		default:
			out = append(out, item.WithRole(media.RoleReference))
		}
	}
	return out
}

func itemByDisplayIndex(items []media.Item, index int) (media.Item, bool) {
	for i := range items {
		if items[i].DisplayIndex == index {
			return items[i], true
		}
	}
	return media.Item{}, false
}

func sharedTags(tokens []string, tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[tag] = struct{}{}
	}
	shared := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := tagSet[tok]; ok {
			shared = append(shared, tok)
		}
	}
	if len(shared) == 0 {
		return nil
	}
	return shared
}
