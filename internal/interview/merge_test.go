package interview

import (
	"reflect"
	"testing"
)

func TestMergeKeySetIsFixed(t *testing.T) {
	cfg := DefaultTierConfig()
	merged := Merge(cfg, cfg.InitialData(), map[string]any{
		FieldPacePreference: "relaxed",
		"favorite_color":    "blue",
	})
	if len(merged) != len(cfg.AllFields()) {
		t.Fatalf("key count = %d, want %d", len(merged), len(cfg.AllFields()))
	}
	if _, ok := merged["favorite_color"]; ok {
		t.Fatal("unknown field must be dropped")
	}
	if merged[FieldPacePreference] != "relaxed" {
		t.Fatalf("pace = %v", merged[FieldPacePreference])
	}
}

func TestMergeNilNeverOverwrites(t *testing.T) {
	cfg := DefaultTierConfig()
	cumulative := cfg.InitialData()
	cumulative[FieldDiningStyle] = "street food"

	merged := Merge(cfg, cumulative, map[string]any{FieldDiningStyle: nil})
	if merged[FieldDiningStyle] != "street food" {
		t.Fatalf("dining = %v", merged[FieldDiningStyle])
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	cfg := DefaultTierConfig()
	cumulative := cfg.InitialData()
	cumulative[FieldPacePreference] = "relaxed"

	merged := Merge(cfg, cumulative, map[string]any{FieldPacePreference: "packed"})
	if merged[FieldPacePreference] != "packed" {
		t.Fatalf("pace = %v", merged[FieldPacePreference])
	}
}

func TestMergeRankedListToMap(t *testing.T) {
	cfg := DefaultTierConfig()
	merged := Merge(cfg, cfg.InitialData(), map[string]any{
		FieldTop3MustDos: []string{"A", "B", "C"},
	})
	want := map[string]any{"1": "A", "2": "B", "3": "C"}
	if !reflect.DeepEqual(merged[FieldTop3MustDos], want) {
		t.Fatalf("ranked = %v", merged[FieldTop3MustDos])
	}
}

func TestMergeRankedListTruncates(t *testing.T) {
	cfg := DefaultTierConfig()
	merged := Merge(cfg, cfg.InitialData(), map[string]any{
		FieldTop3MustDos: []any{"A", "B", "C", "D", "E"},
	})
	want := map[string]any{"1": "A", "2": "B", "3": "C"}
	if !reflect.DeepEqual(merged[FieldTop3MustDos], want) {
		t.Fatalf("ranked = %v", merged[FieldTop3MustDos])
	}
}

func TestMergeRankedMapPassesThrough(t *testing.T) {
	cfg := DefaultTierConfig()
	ranks := map[string]any{"1": "teamlab", "2": nil, "3": nil}
	merged := Merge(cfg, cfg.InitialData(), map[string]any{FieldTop3MustDos: ranks})
	if !reflect.DeepEqual(merged[FieldTop3MustDos], ranks) {
		t.Fatalf("ranked = %v", merged[FieldTop3MustDos])
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	cfg := DefaultTierConfig()
	cumulative := cfg.InitialData()
	cumulative[FieldPacePreference] = "relaxed"
	answers := map[string]any{FieldPacePreference: "packed"}

	_ = Merge(cfg, cumulative, answers)
	if cumulative[FieldPacePreference] != "relaxed" {
		t.Fatal("cumulative mutated")
	}
	if answers[FieldPacePreference] != "packed" {
		t.Fatal("answers mutated")
	}
}
