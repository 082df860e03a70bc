package interview

import (
	"strings"
	"testing"
)

func answeredTier1(cfg TierConfig) map[string]any {
	data := cfg.InitialData()
	data[FieldActivityPreferences] = []string{"food", "museums"}
	data[FieldPacePreference] = "moderate"
	data[FieldTouristVsLocal] = "mix"
	data[FieldMobilityLevel] = "high"
	data[FieldDiningStyle] = "street food"
	return data
}

func TestIsAnswered(t *testing.T) {
	cfg := DefaultTierConfig()
	cases := []struct {
		name  string
		field string
		value any
		want  bool
	}{
		{"nil", FieldPacePreference, nil, false},
		{"empty string", FieldPacePreference, "", false},
		{"whitespace string", FieldPacePreference, "   ", false},
		{"string", FieldPacePreference, "relaxed", true},
		{"empty slice", FieldActivityPreferences, []string{}, false},
		{"empty any slice", FieldActivityPreferences, []any{}, false},
		{"slice", FieldActivityPreferences, []string{"food"}, true},
		{"empty map", FieldSpecialLogistics, map[string]any{}, false},
		{"map", FieldSpecialLogistics, map[string]any{"note": "x"}, true},
		{"zero int", FieldDailyRhythm, 0, true},
		{"false bool", FieldWifiNeed, false, true},
		{"float", FieldDowntimePreference, 2.5, true},
		{"ranked all nil", FieldTop3MustDos, map[string]any{"1": nil, "2": nil, "3": nil}, false},
		{"ranked all empty", FieldTop3MustDos, map[string]any{"1": "", "2": "", "3": ""}, false},
		{"ranked one filled", FieldTop3MustDos, map[string]any{"1": "hiking", "2": nil, "3": nil}, true},
	}
	for _, tc := range cases {
		if got := IsAnswered(cfg, tc.field, tc.value); got != tc.want {
			t.Errorf("%s: IsAnswered(%v) = %t, want %t", tc.name, tc.value, got, tc.want)
		}
	}
}

func TestScoreEmptyRecord(t *testing.T) {
	cfg := DefaultTierConfig()
	res := Score(cfg.InitialData(), Profile{}, cfg)
	if res.Score != 0 {
		t.Fatalf("empty record score = %d, want 0", res.Score)
	}
	if len(res.Tier1Missing) != len(cfg.Tier1Fields) {
		t.Fatalf("tier1 missing = %v", res.Tier1Missing)
	}
}

func TestScoreTierWeights(t *testing.T) {
	cfg := DefaultTierConfig()
	data := answeredTier1(cfg)

	res := Score(data, Profile{}, cfg)
	if res.Score != 50 {
		t.Fatalf("five tier-1 fields = %d, want 50", res.Score)
	}

	data[FieldTransportationMode] = "train"
	data[FieldArrivalTime] = "morning"
	res = Score(data, Profile{}, cfg)
	if res.Score != 58 {
		t.Fatalf("plus two tier-2 fields = %d, want 58", res.Score)
	}

	data[FieldWifiNeed] = "essential"
	data[FieldDailyRhythm] = "early"
	res = Score(data, Profile{}, cfg)
	if res.Score != 64 {
		t.Fatalf("plus plain tier-3 and tier-4 = %d, want 64", res.Score)
	}
}

func TestScoreElevation(t *testing.T) {
	cfg := DefaultTierConfig()
	data := cfg.InitialData()
	data[FieldWifiNeed] = "essential"

	base := Score(data, Profile{}, cfg)
	if base.Score != cfg.Tier3Points {
		t.Fatalf("unelevated wifi_need = %d, want %d", base.Score, cfg.Tier3Points)
	}

	elevated := Score(data, Profile{WorkObligations: "remote standup daily"}, cfg)
	if elevated.Score != cfg.Tier1Points {
		t.Fatalf("elevated wifi_need = %d, want %d", elevated.Score, cfg.Tier1Points)
	}
	if elevated.Score < base.Score {
		t.Fatal("elevation must never decrease the score")
	}
	if len(elevated.ElevatedFields) != 1 || elevated.ElevatedFields[0] != FieldWifiNeed {
		t.Fatalf("elevated fields = %v", elevated.ElevatedFields)
	}
}

func TestScoreClampedAt100(t *testing.T) {
	cfg := DefaultTierConfig()
	data := cfg.InitialData()
	for _, f := range cfg.AllFields() {
		data[f] = "answered"
	}
	profile := Profile{
		WorkObligations:     "work",
		DietaryRestrictions: "vegetarian",
		HealthLimitations:   "knee",
	}
	// 50 + 24 + 30 + 9 raw with all three tier-3 fields elevated.
	res := Score(data, profile, cfg)
	if res.Score != 100 {
		t.Fatalf("fully answered elevated record = %d, want 100", res.Score)
	}
}

func TestElevatedFieldsTriggers(t *testing.T) {
	if got := ElevatedFields(Profile{}); len(got) != 0 {
		t.Fatalf("blank profile elevates %v", got)
	}
	if got := ElevatedFields(Profile{WorkObligations: "  "}); len(got) != 0 {
		t.Fatalf("whitespace trigger elevates %v", got)
	}
	got := ElevatedFields(Profile{
		WorkObligations:     "calls",
		DietaryRestrictions: "halal",
		HealthLimitations:   "wheelchair",
	})
	want := []string{FieldWifiNeed, FieldDietarySeverity, FieldAccessibilityNeeds}
	if len(got) != len(want) {
		t.Fatalf("elevated = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("elevated = %v, want %v", got, want)
		}
	}
}

func TestDecideMaxRounds(t *testing.T) {
	cfg := DefaultTierConfig()
	res := Score(cfg.InitialData(), Profile{}, cfg)
	d := Decide(res, cfg.MaxRounds, nil, cfg)
	if !d.Complete {
		t.Fatal("round at max must complete regardless of score")
	}
	if !strings.Contains(d.Reason, "max rounds") {
		t.Fatalf("reason = %q", d.Reason)
	}
}

func TestDecideCleanCompletion(t *testing.T) {
	cfg := DefaultTierConfig()
	data := answeredTier1(cfg)
	for _, f := range cfg.Tier2Fields {
		data[f] = "answered"
	}
	data[FieldWifiNeed] = "essential"
	data[FieldDailyRhythm] = "early"
	profile := Profile{WorkObligations: "standup"}

	// 50 + 24 + 10 elevated + 3 = 87.
	res := Score(data, profile, cfg)
	if res.Score < cfg.CompletionScore {
		t.Fatalf("setup score = %d, want >= %d", res.Score, cfg.CompletionScore)
	}
	d := Decide(res, 2, nil, cfg)
	if !d.Complete || !strings.Contains(d.Reason, "all critical fields complete") {
		t.Fatalf("decision = %+v", d)
	}
}

// The threshold alone completes the interview even when conflicts remain or a
// critical field is missing. That looseness is deliberate and load-bearing.
func TestDecideThresholdAloneCompletes(t *testing.T) {
	cfg := DefaultTierConfig()
	data := answeredTier1(cfg)
	for _, f := range cfg.Tier2Fields {
		data[f] = "answered"
	}
	for _, f := range cfg.Tier4Fields {
		data[f] = "answered"
	}
	data[FieldDietarySeverity] = "none"
	data[FieldAccessibilityNeeds] = "none"
	// 50 + 24 + 9 + 6 = 89; wifi_need unanswered but elevated, so the
	// all-critical rule cannot fire.
	profile := Profile{WorkObligations: "standup"}
	res := Score(data, profile, cfg)
	if res.Score < cfg.CompletionScore {
		t.Fatalf("setup score = %d, want >= %d", res.Score, cfg.CompletionScore)
	}

	d := Decide(res, 2, []string{"budget vs fine dining"}, cfg)
	if !d.Complete {
		t.Fatal("threshold must complete despite conflicts and missing elevated field")
	}
	if strings.Contains(d.Reason, "all critical fields complete") {
		t.Fatalf("wrong rule fired: %q", d.Reason)
	}
}

func TestDecideConflictsBlockCleanRuleOnly(t *testing.T) {
	cfg := DefaultTierConfig()
	data := answeredTier1(cfg)
	for _, f := range cfg.Tier2Fields {
		data[f] = "answered"
	}
	for _, f := range cfg.Tier3Fields {
		data[f] = "answered"
	}
	data[FieldDailyRhythm] = "early"

	// 50 + 24 + 9 + 3 = 86, no elevation.
	res := Score(data, Profile{}, cfg)
	clean := Decide(res, 1, nil, cfg)
	conflicted := Decide(res, 1, []string{"pace vs mobility"}, cfg)
	if !clean.Complete || !conflicted.Complete {
		t.Fatalf("clean=%+v conflicted=%+v", clean, conflicted)
	}
	if clean.Reason == conflicted.Reason {
		t.Fatal("conflicts should demote the completion to the bare-threshold rule")
	}
}

func TestDecideContinue(t *testing.T) {
	cfg := DefaultTierConfig()
	res := Score(answeredTier1(cfg), Profile{}, cfg)
	d := Decide(res, 1, nil, cfg)
	if d.Complete {
		t.Fatalf("score %d should continue: %+v", res.Score, d)
	}
	if !strings.Contains(d.Reason, "continuing") {
		t.Fatalf("reason = %q", d.Reason)
	}
}
