package interview

import "strings"

// Preference field names. Every field the interview can collect appears here;
// the cumulative record for a session always carries exactly this key set.
const (
	FieldActivityPreferences = "activity_preferences"
	FieldPacePreference      = "pace_preference"
	FieldTouristVsLocal      = "tourist_vs_local"
	FieldMobilityLevel       = "mobility_level"
	FieldDiningStyle         = "dining_style"

	FieldTop3MustDos        = "top_3_must_dos"
	FieldTransportationMode = "transportation_mode"
	FieldArrivalTime        = "arrival_time"
	FieldDepartureTime      = "departure_time"
	FieldBudgetPriority     = "budget_priority"
	FieldAccommodationStyle = "accommodation_style"

	FieldWifiNeed           = "wifi_need"
	FieldDietarySeverity    = "dietary_severity"
	FieldAccessibilityNeeds = "accessibility_needs"

	FieldSpecialLogistics   = "special_logistics"
	FieldDailyRhythm        = "daily_rhythm"
	FieldDowntimePreference = "downtime_preference"
)

// TierConfig defines the field taxonomy: which tier each preference field
// belongs to, per-tier point values, and the stopping thresholds.
type TierConfig struct {
	Tier1Fields []string
	Tier1Points int

	Tier2Fields []string
	Tier2Points int

	Tier3Fields []string
	Tier3Points int

	Tier4Fields []string
	Tier4Points int

	// RankedField is stored as a rank-keyed map ({"1": .., "2": .., "3": ..}).
	RankedField string
	RankedSize  int

	CompletionScore int
	MaxRounds       int
}

// DefaultTierConfig returns the production taxonomy.
//
// Tier 1 is critical, tier 2 planning essentials, tier 3 conditional critical
// (elevated to tier-1 weight when the matching profile trigger holds), tier 4
// optimisation.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		Tier1Fields: []string{
			FieldActivityPreferences,
			FieldPacePreference,
			FieldTouristVsLocal,
			FieldMobilityLevel,
			FieldDiningStyle,
		},
		Tier1Points: 10,

		Tier2Fields: []string{
			FieldTop3MustDos,
			FieldTransportationMode,
			FieldArrivalTime,
			FieldDepartureTime,
			FieldBudgetPriority,
			FieldAccommodationStyle,
		},
		Tier2Points: 4,

		Tier3Fields: []string{
			FieldWifiNeed,
			FieldDietarySeverity,
			FieldAccessibilityNeeds,
		},
		Tier3Points: 3,

		Tier4Fields: []string{
			FieldSpecialLogistics,
			FieldDailyRhythm,
			FieldDowntimePreference,
		},
		Tier4Points: 3,

		RankedField: FieldTop3MustDos,
		RankedSize:  3,

		CompletionScore: 85,
		MaxRounds:       4,
	}
}

// AllFields returns every taxonomy field in tier order.
func (c TierConfig) AllFields() []string {
	out := make([]string, 0, len(c.Tier1Fields)+len(c.Tier2Fields)+len(c.Tier3Fields)+len(c.Tier4Fields))
	out = append(out, c.Tier1Fields...)
	out = append(out, c.Tier2Fields...)
	out = append(out, c.Tier3Fields...)
	out = append(out, c.Tier4Fields...)
	return out
}

// InitialData returns the fixed-shape cumulative record with every field nil.
func (c TierConfig) InitialData() map[string]any {
	data := make(map[string]any, len(c.Tier1Fields)+len(c.Tier2Fields)+len(c.Tier3Fields)+len(c.Tier4Fields))
	for _, f := range c.AllFields() {
		data[f] = nil
	}
	return data
}

// Profile is the immutable user/trip context captured at session creation.
// The three limitation fields drive tier-3 elevation; the rest feeds prompts.
type Profile struct {
	UserName            string   `json:"user_name"`
	Citizenship         string   `json:"citizenship"`
	HealthLimitations   string   `json:"health_limitations,omitempty"`
	WorkObligations     string   `json:"work_obligations,omitempty"`
	DietaryRestrictions string   `json:"dietary_restrictions,omitempty"`
	SpecificInterests   []string `json:"specific_interests,omitempty"`

	Destination       string   `json:"destination"`
	DestinationCities []string `json:"destination_cities,omitempty"`
	StartDate         string   `json:"start_date"`
	EndDate           string   `json:"end_date"`
	TripDuration      int      `json:"trip_duration"`
	Budget            float64  `json:"budget"`
	Currency          string   `json:"currency"`
	TravelParty       string   `json:"travel_party"`
	BudgetScope       string   `json:"budget_scope"`
}

// ElevatedFields returns the tier-3 fields whose profile trigger holds.
// A trigger holds when the corresponding profile value is non-blank.
func ElevatedFields(p Profile) []string {
	var elevated []string
	if strings.TrimSpace(p.WorkObligations) != "" {
		elevated = append(elevated, FieldWifiNeed)
	}
	if strings.TrimSpace(p.DietaryRestrictions) != "" {
		elevated = append(elevated, FieldDietarySeverity)
	}
	if strings.TrimSpace(p.HealthLimitations) != "" {
		elevated = append(elevated, FieldAccessibilityNeeds)
	}
	return elevated
}
