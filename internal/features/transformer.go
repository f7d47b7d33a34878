package features

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"
)

const (
	// The scoring model expects exactly these 30 columns: Amount, Time,
	// and the blended anomaly vectors V1..V28.
	numVectors     = 28
	FeatureCount   = numVectors + 2
	maxDaySeconds  = 86400.0
	vectorScale    = 0.5
	weightSeed     = 1789
	minWeight      = 0.1
	weightSpread   = 0.9
	hashBuckets    = 10000
	defaultTopSize = 3
)

// signalKeys are the named risk signals blended into the V vectors
// and recovered from them for explanations.
var signalKeys = [...]string{
	"name_risk", "email_risk", "phone_risk", "age_risk",
	"device_risk", "network_risk", "merchant_risk",
	"loan_activity_risk", "velocity_risk",
}

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// Transformer converts applicant attributes into the fixed feature vector
// the scoring model was trained on, and maps model vector contributions
// back to named risk signals. The blend weights come from a fixed seed so
// the mapping is identical across processes and restarts.
type Transformer struct {
	weights [numVectors][len(signalKeys)]float64
}

// NewTransformer constructs a transformer with the canonical weight matrix.
func NewTransformer() *Transformer {
	t := &Transformer{}
	rng := rand.New(rand.NewSource(weightSeed))
	for i := 0; i < numVectors; i++ {
		for j := 0; j < len(signalKeys); j++ {
			t.weights[i][j] = minWeight + rng.Float64()*weightSpread
		}
	}
	return t
}

// Transform builds the 30-column feature map from raw attributes.
func (t *Transformer) Transform(attributes map[string]interface{}) (map[string]float64, error) {
	amount := numeric(attributes, "amount", 0)
	timeSeconds := numeric(attributes, "time", 0)

	features := make(map[string]float64, FeatureCount)
	features["Amount"] = math.Log1p(math.Max(amount, 0))
	features["Time"] = math.Min(timeSeconds/maxDaySeconds, 1.0)

	signals := computeSignals(attributes, timeSeconds)
	base := signals["composite_risk"]

	for i := 0; i < numVectors; i++ {
		var weighted, weightSum float64
		for j, key := range signalKeys {
			weighted += signals[key] * t.weights[i][j]
			weightSum += t.weights[i][j]
		}
		vector := base * (weighted / weightSum) * vectorScale
		features[fmt.Sprintf("V%d", i+1)] = clamp(vector, -1.0, 1.0)
	}

	if len(features) != FeatureCount {
		return nil, fmt.Errorf("feature count mismatch: expected %d, got %d", FeatureCount, len(features))
	}
	return features, nil
}

// ReverseTopSignals back-calculates which named risk signals contributed
// most to the model's top anomaly vectors. It is not an exact inverse of
// the blend, but it ranks the signals well enough to ground an explanation.
func (t *Transformer) ReverseTopSignals(vectors map[string]float64, n int) map[string]float64 {
	if n <= 0 {
		n = defaultTopSize
	}
	totals := make(map[string]float64, len(signalKeys))
	for i := 0; i < numVectors; i++ {
		value, ok := vectors[fmt.Sprintf("V%d", i+1)]
		if !ok {
			continue
		}
		var weightSum float64
		for j := range signalKeys {
			weightSum += t.weights[i][j]
		}
		for j, key := range signalKeys {
			totals[key] += (value / vectorScale) * (t.weights[i][j] / weightSum)
		}
	}

	ranked := make([]string, 0, len(totals))
	for key := range totals {
		totals[key] = clamp(totals[key], 0, 1)
		ranked = append(ranked, key)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] == totals[ranked[j]] {
			return ranked[i] < ranked[j]
		}
		return totals[ranked[i]] > totals[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make(map[string]float64, len(ranked))
	for _, key := range ranked {
		top[key] = totals[key]
	}
	return top
}

// computeSignals derives the named risk signals (0 = benign, 1 = risky)
// from the raw attributes.
func computeSignals(attributes map[string]interface{}, timeSeconds float64) map[string]float64 {
	firstName := strings.ToLower(text(attributes, "firstName", "N/A"))
	lastName := strings.ToLower(text(attributes, "lastName", "N/A"))
	email := text(attributes, "email", "unknown@example.com")
	phone := text(attributes, "phoneNumber", "0000000000")
	age := numeric(attributes, "age", 0)
	deviceType := strings.ToLower(text(attributes, "deviceType", "UNKNOWN"))
	ipAddress := text(attributes, "ipAddress", "0.0.0.0")
	merchant := text(attributes, "merchantCategory", "GENERAL")
	osName := strings.ToLower(text(attributes, "os", "android"))
	activeLoans := numeric(attributes, "activeLoansCount", 0)
	reapply := boolean(attributes, "reapplyVelocityFlag")

	nameEntropy := 1.0 - math.Min(uniqueChars(firstName+lastName)/26.0, 1.0)

	emailRisk := 0.0
	if !emailPattern.MatchString(email) {
		emailRisk = 1.0
	} else if strings.Contains(email, "gmail") || strings.Contains(email, "yahoo") {
		emailRisk = 0.5
	} else {
		emailRisk = 0.2
	}

	phoneInvalid := 0.0
	if len(phone) < 9 || len(phone) > 13 {
		phoneInvalid = 1.0
	}
	phonePattern := hashToUnit(phone)

	ageRisk := 0.0
	if age < 18 || age > 80 {
		ageRisk = 1.0
	}

	deviceRisk := 0.2
	if strings.Contains(deviceType, "emulator") {
		deviceRisk = 1.0
	} else if strings.Contains(deviceType, "mobile") {
		deviceRisk = 0.4
	}
	osRisk := 0.3
	if strings.Contains(osName, "android") {
		osRisk = 0.6
	}

	loanRisk := 0.0
	if activeLoans > 2 {
		loanRisk = 1.0
	} else if activeLoans > 0 {
		loanRisk = 0.5
	}

	velocityRisk := 0.0
	if reapply {
		velocityRisk = 1.0
	}

	signals := map[string]float64{
		"name_risk":          nameEntropy * 0.8,
		"email_risk":         emailRisk,
		"phone_risk":         (phoneInvalid + phonePattern) / 2.0,
		"age_risk":           ageRisk,
		"device_risk":        (deviceRisk + osRisk) / 2.0,
		"network_risk":       hashToUnit(ipAddress),
		"merchant_risk":      hashToUnit(merchant),
		"loan_activity_risk": loanRisk,
		"velocity_risk":      velocityRisk,
	}

	hour := timeSeconds / 3600.0
	nightRisk := 0.1
	if hour >= 0 && hour <= 6 {
		nightRisk = 0.8
	}
	signals["time_of_day_risk"] = nightRisk

	var sum float64
	for _, v := range signals {
		sum += v
	}
	signals["composite_risk"] = sum / float64(len(signals))
	return signals
}

func numeric(attributes map[string]interface{}, key string, fallback float64) float64 {
	raw, ok := attributes[key]
	if !ok {
		return fallback
	}
	switch value := raw.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%f", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}

func text(attributes map[string]interface{}, key, fallback string) string {
	raw, ok := attributes[key]
	if !ok {
		return fallback
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func boolean(attributes map[string]interface{}, key string) bool {
	if b, ok := attributes[key].(bool); ok {
		return b
	}
	return false
}

func uniqueChars(s string) float64 {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return float64(len(seen))
}

// hashToUnit maps a string to a stable value in [0,1).
func hashToUnit(value string) float64 {
	var hash uint32
	for _, r := range value {
		hash = hash*31 + uint32(r)
	}
	return float64(hash%hashBuckets) / hashBuckets
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
