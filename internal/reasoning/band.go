package reasoning

// RiskBand is the categorical output of the classifier.
type RiskBand string

const (
	RiskLow    RiskBand = "LOW"
	RiskMedium RiskBand = "MEDIUM"
	RiskHigh   RiskBand = "HIGH"
)

// Classification thresholds. Band boundaries are closed on the lower bound.
const (
	highScoreThreshold   = 0.7
	mediumScoreThreshold = 0.4
	highFlagCount        = 2
	mediumFlagCount      = 1
)

// Classify maps the anomaly score and triggered-flag count to a risk band.
// The function is total over score in [0,1] and any non-negative flag count;
// callers validate the score range before invoking it.
func Classify(aiScore float64, flagCount int) RiskBand {
	if aiScore >= highScoreThreshold || flagCount >= highFlagCount {
		return RiskHigh
	}
	if aiScore >= mediumScoreThreshold || flagCount >= mediumFlagCount {
		return RiskMedium
	}
	return RiskLow
}
