package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Rule types and composite operators.
const (
	TypeSimple    = "simple"
	TypeComposite = "composite"
	OpAll         = "AND"
	OpAny         = "OR"
)

// Condition is a single comparison over one applicant attribute.
type Condition struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

// Rule is a declarative fraud rule. Simple rules hold one condition;
// composite rules combine the outcomes of other simple rules by name.
type Rule struct {
	Name      string     `json:"name"`
	Enabled   bool       `json:"enabled"`
	Type      string     `json:"type"`
	Condition *Condition `json:"condition,omitempty"`
	Operator  string     `json:"operator,omitempty"`
	SubRules  []string   `json:"sub_rules,omitempty"`
}

// Engine evaluates the declared rule set against applicant attributes and
// reports the names of the rules that triggered. The rule table is fixed at
// construction; evaluation holds no state between calls.
type Engine struct {
	rules  []Rule
	byName map[string]int
}

// NewEngine validates and indexes the provided rule table.
func NewEngine(ruleSet []Rule) (*Engine, error) {
	byName := make(map[string]int, len(ruleSet))
	for i, rule := range ruleSet {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, fmt.Errorf("rule %d has empty name", i)
		}
		if _, exists := byName[name]; exists {
			return nil, fmt.Errorf("duplicate rule name %q", name)
		}
		switch rule.Type {
		case TypeSimple:
			if rule.Condition == nil {
				return nil, fmt.Errorf("rule %q missing condition", name)
			}
		case TypeComposite:
			if len(rule.SubRules) == 0 {
				return nil, fmt.Errorf("composite rule %q has no sub rules", name)
			}
			op := strings.ToUpper(rule.Operator)
			if op != OpAll && op != OpAny {
				return nil, fmt.Errorf("composite rule %q has invalid operator %q", name, rule.Operator)
			}
			ruleSet[i].Operator = op
		default:
			return nil, fmt.Errorf("rule %q has unknown type %q", name, rule.Type)
		}
		ruleSet[i].Name = name
		byName[name] = i
	}
	for _, rule := range ruleSet {
		for _, sub := range rule.SubRules {
			idx, ok := byName[sub]
			if !ok {
				return nil, fmt.Errorf("composite rule %q references unknown rule %q", rule.Name, sub)
			}
			if ruleSet[idx].Type != TypeSimple {
				return nil, fmt.Errorf("composite rule %q may only reference simple rules", rule.Name)
			}
		}
	}
	return &Engine{rules: ruleSet, byName: byName}, nil
}

// Load reads a rule table from the provided JSON file.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var ruleSet []Rule
	if err := json.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return NewEngine(ruleSet)
}

// Rules returns the declared rule table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every enabled rule against the attribute map and returns the
// triggered rule names in declaration order. A rule whose attribute is
// absent is skipped with a warning; one broken rule never halts the rest.
func (e *Engine) Evaluate(attributes map[string]interface{}) []string {
	var triggered []string
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}
		hit, err := e.evaluateRule(rule, attributes)
		if err != nil {
			logrus.WithError(err).WithField("rule", rule.Name).Warn("skip rule")
			continue
		}
		if hit {
			triggered = append(triggered, rule.Name)
		}
	}
	return triggered
}

func (e *Engine) evaluateRule(rule Rule, attributes map[string]interface{}) (bool, error) {
	if rule.Type == TypeSimple {
		return evaluateCondition(*rule.Condition, attributes)
	}
	for _, sub := range rule.SubRules {
		hit, err := evaluateCondition(*e.rules[e.byName[sub]].Condition, attributes)
		if err != nil {
			return false, err
		}
		if rule.Operator == OpAll && !hit {
			return false, nil
		}
		if rule.Operator == OpAny && hit {
			return true, nil
		}
	}
	return rule.Operator == OpAll, nil
}

func evaluateCondition(cond Condition, attributes map[string]interface{}) (bool, error) {
	raw, ok := attributes[cond.Field]
	if !ok {
		return false, fmt.Errorf("missing attribute %q", cond.Field)
	}
	switch cond.Op {
	case "gt", "gte", "lt", "lte":
		have, err := toFloat(raw)
		if err != nil {
			return false, fmt.Errorf("attribute %q: %w", cond.Field, err)
		}
		want, err := toFloat(cond.Value)
		if err != nil {
			return false, fmt.Errorf("rule value for %q: %w", cond.Field, err)
		}
		switch cond.Op {
		case "gt":
			return have > want, nil
		case "gte":
			return have >= want, nil
		case "lt":
			return have < want, nil
		default:
			return have <= want, nil
		}
	case "eq", "neq":
		equal := strings.EqualFold(asString(raw), asString(cond.Value))
		if cond.Op == "eq" {
			return equal, nil
		}
		return !equal, nil
	case "contains":
		return strings.Contains(strings.ToLower(asString(raw)), strings.ToLower(asString(cond.Value))), nil
	case "true":
		b, ok := raw.(bool)
		if !ok {
			return false, fmt.Errorf("attribute %q is not a boolean", cond.Field)
		}
		return b, nil
	default:
		return false, fmt.Errorf("unknown operator %q", cond.Op)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		return value.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, errors.New("not numeric")
		}
		return parsed, nil
	default:
		return 0, errors.New("not numeric")
	}
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
