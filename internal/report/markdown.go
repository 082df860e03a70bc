// Package report renders the final preference record for the downstream
// itinerary planner and for human review: a markdown summary, an HTML view,
// and an optional PDF export.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
)

// BuildMarkdown summarizes a finalized session: score, rounds, every
// answered preference grouped by tier, outstanding gaps, and conflicts.
func BuildMarkdown(s *interview.Session, res interview.ScoringResult, cfg interview.TierConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Trip Preference Summary\n\n")
	fmt.Fprintf(&b, "- Traveler: %s\n", s.Profile.UserName)
	fmt.Fprintf(&b, "- Destination: %s\n", s.Profile.Destination)
	fmt.Fprintf(&b, "- Dates: %s to %s (%d days)\n", s.Profile.StartDate, s.Profile.EndDate, s.Profile.TripDuration)
	fmt.Fprintf(&b, "- Travel party: %s\n", s.Profile.TravelParty)
	fmt.Fprintf(&b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Interview Outcome\n\n")
	fmt.Fprintf(&b, "Completeness score: **%d/100** after %d round(s).\n\n", res.Score, s.Round)
	if len(res.ElevatedFields) > 0 {
		fmt.Fprintf(&b, "Elevated fields for this profile: %s.\n\n", strings.Join(res.ElevatedFields, ", "))
	}

	appendTier(&b, "Critical Preferences (Tier 1)", cfg.Tier1Fields, s.Data, cfg)
	appendTier(&b, "Planning Essentials (Tier 2)", cfg.Tier2Fields, s.Data, cfg)
	appendTier(&b, "Conditional Preferences (Tier 3)", cfg.Tier3Fields, s.Data, cfg)
	appendTier(&b, "Optimization Preferences (Tier 4)", cfg.Tier4Fields, s.Data, cfg)

	missing := append([]string{}, res.Tier1Missing...)
	missing = append(missing, res.Tier2Missing...)
	missing = append(missing, res.Tier3Missing...)
	missing = append(missing, res.Tier4Missing...)
	fmt.Fprintf(&b, "## Gaps\n\n")
	if len(missing) == 0 {
		b.WriteString("- None; every preference field is answered.\n")
	}
	for _, f := range missing {
		fmt.Fprintf(&b, "- %s was not answered.\n", fieldLabel(f))
	}
	b.WriteString("\n")

	if len(s.Conflicts) > 0 {
		fmt.Fprintf(&b, "## Unresolved Conflicts\n\n")
		for _, c := range s.Conflicts {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func appendTier(b *strings.Builder, title string, fields []string, data map[string]any, cfg interview.TierConfig) {
	fmt.Fprintf(b, "## %s\n\n", title)
	wrote := false
	for _, f := range fields {
		if !interview.IsAnswered(cfg, f, data[f]) {
			continue
		}
		fmt.Fprintf(b, "- **%s**: %s\n", fieldLabel(f), formatValue(data[f]))
		wrote = true
	}
	if !wrote {
		b.WriteString("- Nothing collected in this tier.\n")
	}
	b.WriteString("\n")
}

func fieldLabel(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if val[k] == nil {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s. %s", k, formatValue(val[k])))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
