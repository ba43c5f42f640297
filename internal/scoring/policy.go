package scoring

import "backend/internal/config"

// Policy carries the heuristic constants. The flat amount ceiling is a hard
// business rule, not a learned signal: any amount above it is flagged no
// matter what the model or the history checks say. The history window and
// similarity limit are sampling bounds inherited from the reference
// deployment and are kept configurable rather than hard-coded.
type Policy struct {
	FlatAmountCeiling float64
	HistoryWindow     int
	MinSamples        int
	StdDevMultiplier  float64
	SimilarityLimit   int
}

func PolicyFromConfig(cfg config.ScoringConfig) Policy {
	return Policy{
		FlatAmountCeiling: cfg.FlatAmountCeiling,
		HistoryWindow:     cfg.HistoryWindow,
		MinSamples:        cfg.MinSamples,
		StdDevMultiplier:  cfg.StdDevMultiplier,
		SimilarityLimit:   cfg.SimilarityLimit,
	}
}

// DefaultPolicy mirrors the reference constants: ceiling 10000, window 100,
// minimum 3 samples, 3 standard deviations, similarity bound 5.
func DefaultPolicy() Policy {
	return Policy{
		FlatAmountCeiling: 10000,
		HistoryWindow:     100,
		MinSamples:        3,
		StdDevMultiplier:  3,
		SimilarityLimit:   5,
	}
}

// ExceedsFlatCeiling applies the amount-only policy rule.
func (p Policy) ExceedsFlatCeiling(amount float64) bool {
	return amount > p.FlatAmountCeiling
}
