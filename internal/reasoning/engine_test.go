package reasoning

import (
	"strings"
	"testing"

	"fraud-risk-engine/internal/knowledge"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(knowledge.Default())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestDecideEndToEnd(t *testing.T) {
	engine := newTestEngine(t)

	testCases := []struct {
		name            string
		sig             ApplicantSignal
		expectBand      RiskBand
		expectSnippets  []string
		rejectSnippets  []string
		expectHighScore float64
	}{
		{
			name: "velocity and amount flags with high score",
			sig: ApplicantSignal{
				ApplicantID: "A123456",
				RuleFlags:   []string{"REAPPLY_VELOCITY_24_HOURS", "AMOUNT_OVER_10K"},
				AIScore:     0.825,
				TopFeatures: map[string]float64{"V14": 0.455, "V4": 0.4263, "Amount": 7.8244},
			},
			expectBand: RiskHigh,
			expectSnippets: []string{
				"Source: policy context",
				"High transaction amounts",
			},
			rejectSnippets: []string{"Triggered"},
		},
		{
			name:       "moderate score alone",
			sig:        ApplicantSignal{ApplicantID: "A2", AIScore: 0.5},
			expectBand: RiskMedium,
			expectSnippets: []string{
				"Source: AI anomaly",
				"AI anomaly detected (no specific rule match).",
				"a moderate AI anomaly",
			},
		},
		{
			name: "single flag low score",
			sig: ApplicantSignal{
				ApplicantID: "A3",
				RuleFlags:   []string{"NEW_DEVICE_LOGIN"},
				AIScore:     0.1,
			},
			expectBand: RiskMedium,
			expectSnippets: []string{
				"Source: policy context",
				"A new device being used to log in or transact increases the probability of fraud",
			},
		},
		{
			name:       "all quiet approves",
			sig:        ApplicantSignal{ApplicantID: "A4", AIScore: 0.05},
			expectBand: RiskLow,
			expectSnippets: []string{
				"Transaction approved.",
			},
			rejectSnippets: []string{"Source:", "top features"},
		},
		{
			name: "unmatched flag with anomaly score",
			sig: ApplicantSignal{
				ApplicantID: "A5",
				RuleFlags:   []string{"unrelated_flag_xyz"},
				AIScore:     0.65,
			},
			expectBand: RiskMedium,
			expectSnippets: []string{
				"Source: policy context",
				"The AI Anomaly Detection Model has flagged a significant risk driver",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decision := engine.Decide(tc.sig)
			if decision.RiskCategory != tc.expectBand {
				t.Fatalf("expected band %s got %s", tc.expectBand, decision.RiskCategory)
			}
			for _, snippet := range tc.expectSnippets {
				if !strings.Contains(decision.Reasoning, snippet) {
					t.Fatalf("reasoning missing %q:\n%s", snippet, decision.Reasoning)
				}
			}
			for _, snippet := range tc.rejectSnippets {
				if strings.Contains(decision.Reasoning, snippet) {
					t.Fatalf("reasoning must not contain %q:\n%s", snippet, decision.Reasoning)
				}
			}
		})
	}
}

func TestDecideConfidenceInvariant(t *testing.T) {
	engine := newTestEngine(t)

	testCases := []struct {
		aiScore  float64
		expected float64
	}{
		{0.825, 0.825},
		{0.123456, 0.1235},
		{0.69995, 0.7},
		{0, 0},
		{1, 1},
	}

	for _, tc := range testCases {
		decision := engine.Decide(ApplicantSignal{ApplicantID: "A", AIScore: tc.aiScore})
		if decision.Confidence != tc.expected {
			t.Fatalf("confidence for score %v = %v, expected %v", tc.aiScore, decision.Confidence, tc.expected)
		}
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	sig := ApplicantSignal{
		ApplicantID: "A1",
		RuleFlags:   []string{"AMOUNT_OVER_10K", "NEW_DEVICE_LOGIN", "REAPPLY_VELOCITY_24_HOURS"},
		AIScore:     0.91,
		TopFeatures: map[string]float64{"V1": 0.2, "V2": -0.4, "V3": 0.4},
	}

	first := engine.Decide(sig)
	for i := 0; i < 20; i++ {
		if got := engine.Decide(sig); got != first {
			t.Fatalf("decision changed between identical calls:\n%+v\nvs\n%+v", first, got)
		}
	}
}
