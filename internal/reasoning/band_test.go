package reasoning

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	testCases := []struct {
		name      string
		aiScore   float64
		flagCount int
		expected  RiskBand
	}{
		{"score exactly high threshold", 0.7, 0, RiskHigh},
		{"score just under high threshold", 0.6999, 0, RiskMedium},
		{"score just under high with one flag", 0.6999, 1, RiskMedium},
		{"two flags override low score", 0.0, 2, RiskHigh},
		{"score exactly medium threshold", 0.4, 0, RiskMedium},
		{"score just under medium threshold", 0.3999, 0, RiskLow},
		{"one flag overrides low score", 0.1, 1, RiskMedium},
		{"all quiet", 0.05, 0, RiskLow},
		{"max score", 1.0, 0, RiskHigh},
		{"zero everything", 0.0, 0, RiskLow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.aiScore, tc.flagCount); got != tc.expected {
				t.Fatalf("Classify(%v, %d) = %s, expected %s", tc.aiScore, tc.flagCount, got, tc.expected)
			}
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[RiskBand]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}
	scores := []float64{0, 0.1, 0.3999, 0.4, 0.5, 0.6, 0.6999, 0.7, 0.9, 1.0}
	flagCounts := []int{0, 1, 2, 3, 5}

	for _, flags := range flagCounts {
		prev := -1
		for _, score := range scores {
			current := rank[Classify(score, flags)]
			if current < prev {
				t.Fatalf("band decreased as score rose to %v with %d flags", score, flags)
			}
			prev = current
		}
	}
	for _, score := range scores {
		prev := -1
		for _, flags := range flagCounts {
			current := rank[Classify(score, flags)]
			if current < prev {
				t.Fatalf("band decreased as flags rose to %d with score %v", flags, score)
			}
			prev = current
		}
	}
}
