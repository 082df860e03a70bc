package interview

import "strconv"

// Merge folds a round's answers into the cumulative record and returns a new
// map; neither input is mutated. Nil values never overwrite existing data,
// the ranked field's list form is converted to a rank-keyed map, everything
// else is last-write-wins. The result carries exactly the taxonomy's key set:
// unknown fields in answers are dropped.
func Merge(cfg TierConfig, cumulative, answers map[string]any) map[string]any {
	merged := cfg.InitialData()
	for f := range merged {
		if v, ok := cumulative[f]; ok {
			merged[f] = v
		}
	}

	for field, value := range answers {
		if _, known := merged[field]; !known {
			continue
		}
		if value == nil {
			continue
		}
		if field == cfg.RankedField {
			if ranked, ok := toRankedMap(value, cfg.RankedSize); ok {
				merged[field] = ranked
				continue
			}
		}
		merged[field] = value
	}
	return merged
}

// toRankedMap converts an ordered list into {"1": v0, "2": v1, ...},
// truncating to size entries. Map values pass through untouched elsewhere.
func toRankedMap(value any, size int) (map[string]any, bool) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return nil, false
	}

	if len(items) > size {
		items = items[:size]
	}
	ranked := make(map[string]any, len(items))
	for i, item := range items {
		ranked[strconv.Itoa(i+1)] = item
	}
	return ranked, true
}
