package reasoning

import (
	"fmt"
	"sort"
	"strings"
)

// Explanation source labels, cited in the rendered reasoning.
const (
	sourcePolicyContext = "policy context"
	sourceRuleFlags     = "rule flags"
	sourceAnomalyOnly   = "AI anomaly"
)

// Synthesize renders the human-readable rationale for a decision. The
// explanation source is chosen by priority: retrieved policy context first,
// then the raw rule flags, then a generic anomaly statement. Context wins
// even when zero flags triggered it (a high score alone retrieves the
// anomaly entry, and its first sentence is the summary).
func Synthesize(contextText string, band RiskBand, sig ApplicantSignal) string {
	flagCount := len(sig.RuleFlags)
	confidence := roundConfidence(sig.AIScore)

	var summary, source string
	switch {
	case contextText != "":
		summary = firstSentence(contextText)
		source = sourcePolicyContext
	case flagCount > 0:
		severity := "Moderate"
		if sig.AIScore >= highScoreThreshold || flagCount >= highFlagCount {
			severity = "Severe"
		}
		summary = fmt.Sprintf("Triggered %s rule flags: %s", severity, strings.Join(sig.RuleFlags, ", "))
		source = sourceRuleFlags
	default:
		summary = "AI anomaly detected (no specific rule match)."
		source = sourceAnomalyOnly
	}

	switch band {
	case RiskHigh:
		return fmt.Sprintf(
			"**HIGH RISK (%.2f%%)**: Immediate manual review/block required. "+
				"Risk is severe due to multiple Rule Flags (%d) and/or a high AI Anomaly Score (%.4f). "+
				"Key risk drivers (Source: %s): %s. The top features impacting the AI score were: %s.",
			confidence*100, flagCount, sig.AIScore, source, summary, featureNames(sig.TopFeatures))
	case RiskMedium:
		trigger := "a moderate AI anomaly"
		if flagCount > 0 {
			trigger = "Rule Flags"
		}
		return fmt.Sprintf(
			"**MEDIUM RISK (%.2f%%)**: Requires manual review by an analyst. "+
				"The risk is moderate, triggered by %s. "+
				"Context (Source: %s): %s. Review top features: %s.",
			confidence*100, trigger, source, summary, featureNames(sig.TopFeatures))
	default:
		return fmt.Sprintf(
			"**LOW RISK (%.2f%%)**: No significant fraud indicators detected by the hybrid system. Transaction approved.",
			confidence*100)
	}
}

// firstSentence returns the text before the first terminator in the context.
func firstSentence(text string) string {
	if idx := strings.Index(text, "."); idx >= 0 {
		return text[:idx]
	}
	return text
}

// featureNames renders the top-feature names ordered by descending
// contribution magnitude, ties broken by name, so identical inputs always
// render identically.
func featureNames(features map[string]float64) string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := abs(features[names[i]]), abs(features[names[j]])
		if a == b {
			return names[i] < names[j]
		}
		return a > b
	})
	return "[" + strings.Join(names, ", ") + "]"
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
