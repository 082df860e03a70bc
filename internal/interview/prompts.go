package interview

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPromptIntro = `You are a travel-planning interviewer. Your job is to elicit trip preferences through short rounds of structured questions. You never decide when the interview ends and you never report a score; server code owns both. Respond with strict JSON only.`

const systemPromptRubric = `
# Field Taxonomy
Tier 1 (critical): activity_preferences, pace_preference, tourist_vs_local, mobility_level, dining_style
Tier 2 (planning essentials): top_3_must_dos, transportation_mode, arrival_time, departure_time, budget_priority, accommodation_style
Tier 3 (conditional critical): wifi_need (ask early if work obligations), dietary_severity (ask early if dietary restrictions), accessibility_needs (ask early if health limitations)
Tier 4 (optimization): special_logistics, daily_rhythm, downtime_preference

# Question Design Rules
- At most 4 questions per round, highest-priority unanswered fields first.
- For activity preferences include destination-specific examples in the options.
- For timing questions include an "Unknown/flexible" option.
- Flag contradictions between answers in state.conflicts_detected (e.g. relaxed pace vs. a packed must-do list).

# Output Schema
Reply with a single JSON object:
{
  "round": <int>,
  "questions": [
    {"id": "q<round>_<n>", "field": "<field_name>", "tier": <1-4>, "question": "<text>", "type": "single_select" | "multi_select" | "ranked" | "text", "options": ["..."], "min_selections": <int?>, "max_selections": <int?>, "allow_custom": <bool>}
  ],
  "state": {
    "collected": ["<answered fields>"],
    "missing_tier1": ["..."],
    "missing_tier2": ["..."],
    "conflicts_detected": ["..."]
  },
  "data": { <every taxonomy field; null when not yet answered; top_3_must_dos as {"1": .., "2": .., "3": ..}> }
}
Fields not asked yet must be null, not omitted.`

// BuildSystemPrompt renders the interviewer role, the user/trip context, and
// the output rubric for one session.
func BuildSystemPrompt(p Profile) string {
	var b strings.Builder
	b.WriteString(systemPromptIntro)
	b.WriteString("\n\n# User Profile\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.UserName)
	fmt.Fprintf(&b, "- Citizenship: %s\n", orNone(p.Citizenship))
	fmt.Fprintf(&b, "- Health limitations: %s\n", orNone(p.HealthLimitations))
	fmt.Fprintf(&b, "- Work obligations: %s\n", orNone(p.WorkObligations))
	fmt.Fprintf(&b, "- Dietary restrictions: %s\n", orNone(p.DietaryRestrictions))
	fmt.Fprintf(&b, "- Specific interests: %s\n", orNoneList(p.SpecificInterests))
	b.WriteString("\n# Trip Basics\n")
	fmt.Fprintf(&b, "- Destination: %s\n", p.Destination)
	if len(p.DestinationCities) > 0 {
		fmt.Fprintf(&b, "- Cities: %s\n", strings.Join(p.DestinationCities, ", "))
	}
	fmt.Fprintf(&b, "- Dates: %s to %s (%d days)\n", p.StartDate, p.EndDate, p.TripDuration)
	fmt.Fprintf(&b, "- Budget: %.2f %s (%s)\n", p.Budget, p.Currency, orNone(p.BudgetScope))
	fmt.Fprintf(&b, "- Travel party: %s\n", p.TravelParty)
	b.WriteString(systemPromptRubric)
	return b.String()
}

// BuildUserPrompt renders the per-round request: the round number, the
// cumulative data so far, and the answers just submitted.
func BuildUserPrompt(round int, cumulative, answers map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d.\n", round)
	if round == 1 {
		b.WriteString("This is the first round; no answers have been collected yet. Ask the highest-priority questions.\n")
	}
	if len(answers) > 0 {
		b.WriteString("\nThe user just answered:\n")
		b.WriteString(compactJSON(answers))
		b.WriteString("\n")
	}
	b.WriteString("\nInformation collected so far:\n")
	b.WriteString(compactJSON(cumulative))
	b.WriteString("\n\nGenerate the next round of questions and the updated data object.")
	return b.String()
}

func compactJSON(v any) string {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(blob)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None specified"
	}
	return s
}

func orNoneList(items []string) string {
	if len(items) == 0 {
		return "None specified"
	}
	return strings.Join(items, ", ")
}
