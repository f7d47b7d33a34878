package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRetrieveMatchesFlagsToPolicyKeys(t *testing.T) {
	base := Default()

	testCases := []struct {
		name       string
		flags      []string
		aiScore    float64
		expectKeys []string
	}{
		{
			"velocity and amount",
			[]string{"REAPPLY_VELOCITY_24_HOURS", "AMOUNT_OVER_10K"},
			0.825,
			[]string{"AMOUNT_HIGH", "VELOCITY_REAPPLY", "AI_ANOMALY"},
		},
		{
			"device flag low score",
			[]string{"NEW_DEVICE_LOGIN"},
			0.1,
			[]string{"NEW_DEVICE_LOGIN"},
		},
		{
			"unmatched flag dropped",
			[]string{"unrelated_flag_xyz"},
			0.1,
			nil,
		},
		{
			"unmatched flag but anomaly score",
			[]string{"unrelated_flag_xyz"},
			0.65,
			[]string{"AI_ANOMALY"},
		},
		{
			"score below anomaly threshold",
			nil,
			0.59,
			nil,
		},
		{
			"score exactly at anomaly threshold",
			nil,
			0.6,
			[]string{"AI_ANOMALY"},
		},
		{
			"duplicate keys collapse",
			[]string{"AMOUNT_OVER_10K", "amount suspiciously high"},
			0.1,
			[]string{"AMOUNT_HIGH"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := base.Retrieve(tc.flags, tc.aiScore)
			got := ctx.Keys()
			if len(got) != len(tc.expectKeys) {
				t.Fatalf("expected keys %v got %v", tc.expectKeys, got)
			}
			for i, key := range tc.expectKeys {
				if got[i] != key {
					t.Fatalf("expected keys %v got %v", tc.expectKeys, got)
				}
			}
		})
	}
}

func TestRetrieveFirstMatchWinsPerFlag(t *testing.T) {
	entries := []Entry{
		{Key: "FIRST", Text: "First entry."},
		{Key: "SECOND", Text: "Second entry."},
	}
	rules := []FlagRule{
		{Keyword: "velocity", Key: "FIRST"},
		{Keyword: "velo", Key: "SECOND"},
	}
	base, err := New(entries, rules)
	if err != nil {
		t.Fatalf("new base: %v", err)
	}

	ctx := base.Retrieve([]string{"VELOCITY_CHECK"}, 0.1)
	keys := ctx.Keys()
	if len(keys) != 1 || keys[0] != "FIRST" {
		t.Fatalf("expected only FIRST, got %v", keys)
	}
}

func TestRetrieveContextTextIsStable(t *testing.T) {
	base := Default()
	flags := []string{"AMOUNT_OVER_10K", "NEW_DEVICE_LOGIN", "REAPPLY_VELOCITY_24_HOURS"}

	first := base.Retrieve(flags, 0.7).Text()
	for i := 0; i < 20; i++ {
		if got := base.Retrieve(flags, 0.7).Text(); got != first {
			t.Fatalf("context text changed between calls:\n%s\nvs\n%s", first, got)
		}
	}

	// Declaration order, not flag order: AMOUNT_HIGH precedes VELOCITY_REAPPLY
	// precedes NEW_DEVICE_LOGIN in the entry table.
	amount := strings.Index(first, "High transaction amounts")
	velocity := strings.Index(first, "Applying for a loan multiple times")
	device := strings.Index(first, "A new device")
	if amount < 0 || velocity < 0 || device < 0 {
		t.Fatalf("missing expected snippets in context: %q", first)
	}
	if !(amount < velocity && velocity < device) {
		t.Fatalf("context not in declaration order: %q", first)
	}
}

func TestNewRejectsBrokenTables(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatal("expected error for empty entries")
	}
	entries := []Entry{{Key: "A", Text: "a"}, {Key: "A", Text: "dup"}}
	if _, err := New(entries, nil); err == nil {
		t.Fatal("expected error for duplicate keys")
	}
	entries = []Entry{{Key: "A", Text: "a"}}
	rules := []FlagRule{{Keyword: "x", Key: "MISSING"}}
	if _, err := New(entries, rules); err == nil {
		t.Fatal("expected error for rule with unknown target")
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	entriesPath := filepath.Join(dir, "entries.json")
	rulesPath := filepath.Join(dir, "rules.json")

	writeJSONFile(t, entriesPath, []Entry{
		{Key: "AI_ANOMALY", Text: "Anomaly text."},
		{Key: "CUSTOM", Text: "Custom policy text."},
	})
	writeJSONFile(t, rulesPath, []FlagRule{{Keyword: "custom", Key: "CUSTOM"}})

	base, err := Load(entriesPath, rulesPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	ctx := base.Retrieve([]string{"CUSTOM_FLAG"}, 0.0)
	if ctx.Text() != "Custom policy text." {
		t.Fatalf("unexpected context %q", ctx.Text())
	}
}

func writeJSONFile(t *testing.T, path string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
