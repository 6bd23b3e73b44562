package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is a normalized, typed unit of extracted information. RecordID is
// derived from the entity's natural key, so re-normalizing the same source
// upserts rather than duplicates.
type Record struct {
	RecordID     string         `json:"record_id"`
	SourceURL    string         `json:"source_url"`
	Name         string         `json:"name"`
	Fields       map[string]any `json:"fields"`
	CategoryTags []string       `json:"category_tags"`
	NormalizedAt time.Time      `json:"normalized_at"`
	EmbeddedAt   *time.Time     `json:"embedded_at,omitempty"`
}

// DeriveID computes the deterministic record identifier from an entity name:
// whitespace-collapsed, lowercased, hashed, truncated.
func DeriveID(name string) string {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	sum := sha256.Sum256([]byte(key))
	return "rec_" + hex.EncodeToString(sum[:])[:16]
}

// Summary renders the compact textual form of a record used both for
// embedding and for prompt context assembly. Field order is stable.
func Summary(r *Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", r.Name)
	fmt.Fprintf(&sb, "Source: %s\n", r.SourceURL)
	if len(r.CategoryTags) > 0 {
		fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(r.CategoryTags, ", "))
	}

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := r.Fields[k].(type) {
		case float64:
			fmt.Fprintf(&sb, "%s: %s\n", k, formatNumber(v))
		default:
			fmt.Fprintf(&sb, "%s: %v\n", k, v)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.1f", f)
}
