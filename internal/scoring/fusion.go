package scoring

// OracleResult is what the scoring model returns for a candidate.
type OracleResult struct {
	RiskScore float64
	Flagged   bool
}

// Verdict is the fused decision. The risk score is the model's score
// untouched: fusion only widens the flagged boolean, it never adjusts the
// score, so a locally flagged invoice can still carry a low score.
type Verdict struct {
	RiskScore float64
	Flagged   bool
	Alerts    []Alert
}

// Fuse combines the model output, the heuristic alerts and the flat-amount
// policy into the final decision. Plain OR over booleans, no weighting.
func Fuse(oracle OracleResult, alerts []Alert, overCeiling bool) Verdict {
	return Verdict{
		RiskScore: oracle.RiskScore,
		Flagged:   oracle.Flagged || len(alerts) > 0 || overCeiling,
		Alerts:    alerts,
	}
}
