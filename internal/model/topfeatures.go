package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// DefaultTopN is the number of top features reported with each score.
const DefaultTopN = 5

// Feature is one named model input with its value.
type Feature struct {
	Name  string
	Value float64
}

// RankedFeatures is an ordered feature list that marshals as a JSON object
// preserving rank order, matching the scoring response contract.
type RankedFeatures []Feature

// TopFeatures returns the n features with the largest absolute values in
// descending magnitude order. Ties break by name so ranking is stable.
// Fewer than n inputs yield all of them.
func TopFeatures(features map[string]float64, n int) RankedFeatures {
	ranked := make(RankedFeatures, 0, len(features))
	for name, value := range features {
		ranked = append(ranked, Feature{Name: name, Value: value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := abs(ranked[i].Value), abs(ranked[j].Value)
		if a == b {
			return ranked[i].Name < ranked[j].Name
		}
		return a > b
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// AsMap flattens the ranked list for callers that only need lookup.
func (r RankedFeatures) AsMap() map[string]float64 {
	out := make(map[string]float64, len(r))
	for _, f := range r {
		out[f.Name] = f.Value
	}
	return out
}

// MarshalJSON renders the features as an object in rank order.
func (r RankedFeatures) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object and re-ranks it by magnitude.
func (r *RankedFeatures) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = TopFeatures(raw, -1)
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
