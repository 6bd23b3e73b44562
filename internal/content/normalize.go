package content

import (
	"strconv"
	"strings"
)

// fieldMapping translates source column abbreviations to canonical field
// names. Unmapped keys fall back to a lowercased, underscored form.
var fieldMapping = map[string]string{
	"GP":   "games_played",
	"MIN":  "minutes",
	"PTS":  "points",
	"FGM":  "field_goals_made",
	"FGA":  "field_goals_attempted",
	"FG%":  "field_goal_percentage",
	"3PM":  "three_pointers_made",
	"3PA":  "three_pointers_attempted",
	"3P%":  "three_point_percentage",
	"FTM":  "free_throws_made",
	"FTA":  "free_throws_attempted",
	"FT%":  "free_throw_percentage",
	"OREB": "offensive_rebounds",
	"DREB": "defensive_rebounds",
	"REB":  "rebounds",
	"AST":  "assists",
	"STL":  "steals",
	"BLK":  "blocks",
	"TOV":  "turnovers",
	"EFG%": "effective_field_goal_percentage",
	"TS%":  "true_shooting_percentage",
	"PF":   "personal_fouls",
}

// Keys that carry no stat value and are never emitted as fields.
var skippedKeys = map[string]bool{
	"#":      true,
	"PLAYER": true,
	"Player": true,
	"player": true,
	"NAME":   true,
	"Name":   true,
	"name":   true,
}

// NormalizeEntity cleans an Entity into canonical field names and typed
// values. Numeric strings become float64 (percentages keep one decimal);
// anything unparsable stays a string. Empty and placeholder values are
// dropped.
func NormalizeEntity(e Entity) (string, map[string]any) {
	name := NormalizeName(e.Name)
	fields := make(map[string]any, len(e.Fields))

	for key, raw := range e.Fields {
		if skippedKeys[key] {
			continue
		}
		val := normalizeValue(key, raw)
		if val == nil {
			continue
		}
		fields[canonicalKey(key)] = val
	}
	return name, fields
}

// NormalizeName collapses whitespace and title-cases an entity name.
func NormalizeName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		parts[i] = strings.Title(strings.ToLower(p)) //nolint:staticcheck // names are ASCII; Title suffices as in the source system
	}
	return strings.Join(parts, " ")
}

func canonicalKey(key string) string {
	if mapped, ok := fieldMapping[key]; ok {
		return mapped
	}
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, " ", "_")
	k = strings.ReplaceAll(k, "%", "_pct")
	return k
}

func normalizeValue(key, raw string) any {
	v := strings.TrimSpace(raw)
	if v == "" || v == "-" || strings.EqualFold(v, "N/A") {
		return nil
	}

	v = strings.ReplaceAll(v, ",", "")

	if strings.Contains(key, "%") || strings.Contains(v, "%") {
		v = strings.TrimSuffix(v, "%")
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return roundTo(f, 1)
		}
		return raw
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func roundTo(f float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	if f >= 0 {
		return float64(int64(f*shift+0.5)) / shift
	}
	return float64(int64(f*shift-0.5)) / shift
}
