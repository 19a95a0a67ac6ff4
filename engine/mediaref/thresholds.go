package mediaref

// Explicit strategies are certain by definition and not tunable.
const explicitConfidence = 1.0

// Thresholds centralizes the resolver's tunable heuristics. Deployments
// adjust them through configuration; zero values are replaced by defaults at
// construction so a partially filled struct stays safe.
type Thresholds struct {
	// NewUploadConfidence is assigned when fresh uploads win by precedence.
	NewUploadConfidence float64
	// SemanticConfidenceCap bounds the overlap ratio so description matches
	// never rank as certain.
	SemanticConfidenceCap float64
	// MostRecentConfidence is assigned to the implicit most-recent fallback.
	MostRecentConfidence float64
	// DisambiguationThreshold is the confidence floor below which a winner
	// with competing candidates is sent back for clarification.
	DisambiguationThreshold float64
	// MinTagOverlap is the minimum shared-tag count for a semantic match.
	MinTagOverlap int
	// MaxOptions caps how many candidates a clarification question offers.
	MaxOptions int
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NewUploadConfidence:     0.9,
		SemanticConfidenceCap:   0.85,
		MostRecentConfidence:    0.6,
		DisambiguationThreshold: 0.5,
		MinTagOverlap:           1,
		MaxOptions:              5,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	def := DefaultThresholds()
	if t.NewUploadConfidence <= 0 || t.NewUploadConfidence > 1 {
		t.NewUploadConfidence = def.NewUploadConfidence
	}
	if t.SemanticConfidenceCap <= 0 || t.SemanticConfidenceCap > 1 {
		t.SemanticConfidenceCap = def.SemanticConfidenceCap
	}
	if t.MostRecentConfidence <= 0 || t.MostRecentConfidence > 1 {
		t.MostRecentConfidence = def.MostRecentConfidence
	}
	if t.DisambiguationThreshold <= 0 || t.DisambiguationThreshold > 1 {
		t.DisambiguationThreshold = def.DisambiguationThreshold
	}
	if t.MinTagOverlap <= 0 {
		t.MinTagOverlap = def.MinTagOverlap
	}
	if t.MaxOptions <= 0 {
		t.MaxOptions = def.MaxOptions
	}
	return t
}
