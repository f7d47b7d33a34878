package features

import (
	"fmt"
	"math"
	"testing"
)

func sampleAttributes() map[string]interface{} {
	return map[string]interface{}{
		"amount":              12500.0,
		"time":                3600.0,
		"firstName":           "Jane",
		"lastName":            "Doe",
		"email":               "jane.doe@gmail.com",
		"phoneNumber":         "0912345678",
		"age":                 29.0,
		"deviceType":          "mobile",
		"ipAddress":           "10.0.0.12",
		"merchantCategory":    "ELECTRONICS",
		"os":                  "android",
		"activeLoansCount":    1.0,
		"reapplyVelocityFlag": true,
	}
}

func TestTransformProducesFullVector(t *testing.T) {
	transformer := NewTransformer()

	features, err := transformer.Transform(sampleAttributes())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(features) != FeatureCount {
		t.Fatalf("expected %d features, got %d", FeatureCount, len(features))
	}
	if _, ok := features["Amount"]; !ok {
		t.Fatal("missing Amount feature")
	}
	if _, ok := features["Time"]; !ok {
		t.Fatal("missing Time feature")
	}
	for i := 1; i <= 28; i++ {
		key := fmt.Sprintf("V%d", i)
		value, ok := features[key]
		if !ok {
			t.Fatalf("missing %s feature", key)
		}
		if value < -1.0 || value > 1.0 {
			t.Fatalf("%s out of range: %v", key, value)
		}
	}

	expectedAmount := math.Log1p(12500.0)
	if math.Abs(features["Amount"]-expectedAmount) > 1e-9 {
		t.Fatalf("Amount = %v, expected %v", features["Amount"], expectedAmount)
	}
	expectedTime := 3600.0 / 86400.0
	if math.Abs(features["Time"]-expectedTime) > 1e-9 {
		t.Fatalf("Time = %v, expected %v", features["Time"], expectedTime)
	}
}

func TestTransformIsDeterministicAcrossInstances(t *testing.T) {
	first, err := NewTransformer().Transform(sampleAttributes())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	second, err := NewTransformer().Transform(sampleAttributes())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for key, value := range first {
		if second[key] != value {
			t.Fatalf("feature %s differs across transformers: %v vs %v", key, value, second[key])
		}
	}
}

func TestTransformDefaultsMissingAttributes(t *testing.T) {
	features, err := NewTransformer().Transform(map[string]interface{}{})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if len(features) != FeatureCount {
		t.Fatalf("expected %d features, got %d", FeatureCount, len(features))
	}
	if features["Amount"] != 0 {
		t.Fatalf("Amount should default to 0, got %v", features["Amount"])
	}
}

func TestReverseTopSignals(t *testing.T) {
	transformer := NewTransformer()

	riskyFeatures, err := transformer.Transform(sampleAttributes())
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	top := transformer.ReverseTopSignals(riskyFeatures, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 signals, got %d (%v)", len(top), top)
	}
	known := map[string]bool{}
	for _, key := range signalKeys {
		known[key] = true
	}
	for key, value := range top {
		if !known[key] {
			t.Fatalf("unknown signal %q", key)
		}
		if value < 0 || value > 1 {
			t.Fatalf("signal %s out of range: %v", key, value)
		}
	}
}

func TestReverseTopSignalsIgnoresNonVectorKeys(t *testing.T) {
	transformer := NewTransformer()
	top := transformer.ReverseTopSignals(map[string]float64{"Amount": 9.4, "Time": 0.5}, 3)
	for _, value := range top {
		if value != 0 {
			t.Fatalf("expected zero contributions without V vectors, got %v", top)
		}
	}
}
