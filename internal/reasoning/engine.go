package reasoning

import (
	"math"

	"fraud-risk-engine/internal/knowledge"
)

// ApplicantSignal carries the two independently produced fraud signals for
// one applicant: the flags raised by the rules engine and the anomaly score
// (with its top contributing features) from the scoring model.
type ApplicantSignal struct {
	ApplicantID string
	Attributes  map[string]interface{}
	RuleFlags   []string
	AIScore     float64
	TopFeatures map[string]float64
}

// Decision is the synthesized fraud-risk outcome.
type Decision struct {
	Reasoning    string
	RiskCategory RiskBand
	Confidence   float64
}

// Engine composes retrieval, classification, and synthesis into a single
// pure decision function. The knowledge base is injected at construction
// and never mutated, so one Engine serves any number of concurrent calls.
type Engine struct {
	kb *knowledge.Base
}

// NewEngine constructs an engine over the provided knowledge base.
func NewEngine(kb *knowledge.Base) (*Engine, error) {
	if err := kb.Validate(); err != nil {
		return nil, err
	}
	return &Engine{kb: kb}, nil
}

// Decide produces the final decision for a contract-valid signal. Every
// valid input yields a complete decision; there is no failure path.
func (e *Engine) Decide(sig ApplicantSignal) Decision {
	ctx := e.kb.Retrieve(sig.RuleFlags, sig.AIScore)
	band := Classify(sig.AIScore, len(sig.RuleFlags))
	return Decision{
		Reasoning:    Synthesize(ctx.Text(), band, sig),
		RiskCategory: band,
		Confidence:   roundConfidence(sig.AIScore),
	}
}

// roundConfidence rounds the anomaly score to four decimals for presentation.
func roundConfidence(score float64) float64 {
	return math.Round(score*10000) / 10000
}
