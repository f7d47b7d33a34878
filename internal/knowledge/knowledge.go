package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AnomalyKey is the policy key attached when the anomaly score alone is high
// enough to warrant explanation.
const AnomalyKey = "AI_ANOMALY"

// anomalyScoreThreshold is the score at which the anomaly entry joins the
// retrieved context even without any matching rule flag.
const anomalyScoreThreshold = 0.6

// Entry pairs a policy key with the explanatory text shown to reviewers.
type Entry struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// FlagRule maps a keyword to a policy key. Matching is case-insensitive
// substring containment of the keyword inside a rule flag label.
type FlagRule struct {
	Keyword string `json:"keyword"`
	Key     string `json:"key"`
}

// Base holds the immutable policy tables. Entries keep their declaration
// order so retrieved context renders identically for identical inputs, and
// flag rules keep their declaration order so keyword precedence is explicit.
type Base struct {
	entries []Entry
	rules   []FlagRule
	index   map[string]int
}

// New constructs a Base from the provided tables.
func New(entries []Entry, rules []FlagRule) (*Base, error) {
	if len(entries) == 0 {
		return nil, errors.New("knowledge entries missing")
	}
	index := make(map[string]int, len(entries))
	for i, entry := range entries {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return nil, fmt.Errorf("knowledge entry %d has empty key", i)
		}
		if _, exists := index[key]; exists {
			return nil, fmt.Errorf("duplicate knowledge key %q", key)
		}
		entries[i].Key = key
		index[key] = i
	}
	normalized := make([]FlagRule, 0, len(rules))
	for i, rule := range rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if keyword == "" {
			return nil, fmt.Errorf("flag rule %d has empty keyword", i)
		}
		if _, ok := index[rule.Key]; !ok {
			return nil, fmt.Errorf("flag rule %q targets unknown key %q", rule.Keyword, rule.Key)
		}
		normalized = append(normalized, FlagRule{Keyword: keyword, Key: rule.Key})
	}
	return &Base{entries: entries, rules: normalized, index: index}, nil
}

// Load reads entry and flag-rule tables from the provided JSON files.
func Load(entriesPath, rulesPath string) (*Base, error) {
	var entries []Entry
	if err := readJSON(entriesPath, &entries); err != nil {
		return nil, fmt.Errorf("read knowledge entries: %w", err)
	}
	var rules []FlagRule
	if err := readJSON(rulesPath, &rules); err != nil {
		return nil, fmt.Errorf("read flag rules: %w", err)
	}
	return New(entries, rules)
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Entries returns the declared entry table (primarily for the config endpoint).
func (b *Base) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Rules returns the declared keyword precedence list.
func (b *Base) Rules() []FlagRule {
	out := make([]FlagRule, len(b.rules))
	copy(out, b.rules)
	return out
}

// Validate ensures the base has at least baseline configuration.
func (b *Base) Validate() error {
	if b == nil {
		return errors.New("knowledge base is nil")
	}
	if len(b.entries) == 0 {
		return errors.New("knowledge entries missing")
	}
	if _, ok := b.index[AnomalyKey]; !ok {
		return fmt.Errorf("knowledge entry %q missing", AnomalyKey)
	}
	return nil
}

// Context is the policy context retrieved for a single decision. Keys are
// held in entry-table declaration order.
type Context struct {
	keys []string
	base *Base
}

// Empty reports whether no policy entry was retrieved.
func (c Context) Empty() bool {
	return len(c.keys) == 0
}

// Keys returns the retrieved policy keys in declaration order.
func (c Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Text renders the retrieved entry texts joined by newlines. The order
// follows the entry table, never map iteration, so output is byte-stable.
func (c Context) Text() string {
	if len(c.keys) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.keys))
	for _, key := range c.keys {
		parts = append(parts, c.base.entries[c.base.index[key]].Text)
	}
	return strings.Join(parts, "\n")
}

// Retrieve matches rule flags against the keyword table and the anomaly
// score against the anomaly threshold. For each flag the first matching
// rule in declared order wins; flags matching no rule contribute nothing.
func (b *Base) Retrieve(ruleFlags []string, aiScore float64) Context {
	matched := make(map[string]struct{})
	for _, flag := range ruleFlags {
		lowered := strings.ToLower(flag)
		for _, rule := range b.rules {
			if strings.Contains(lowered, rule.Keyword) {
				matched[rule.Key] = struct{}{}
				break
			}
		}
	}
	if aiScore >= anomalyScoreThreshold {
		matched[AnomalyKey] = struct{}{}
	}

	keys := make([]string, 0, len(matched))
	for _, entry := range b.entries {
		if _, ok := matched[entry.Key]; ok {
			keys = append(keys, entry.Key)
		}
	}
	return Context{keys: keys, base: b}
}
