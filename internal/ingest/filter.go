package ingest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// Filter restricts a crash dataset by attribute before clustering. Zero
// values mean "no restriction" for that attribute.
type Filter struct {
	County  string `json:"county,omitempty"`
	City    string `json:"city,omitempty"`
	Weather string `json:"weather,omitempty"`
	Route   string `json:"route,omitempty"`
	YearMin int    `json:"year_min,omitempty"`
	YearMax int    `json:"year_max,omitempty"`
}

// Match reports whether a record passes the filter. String comparisons
// are case-insensitive.
func (f Filter) Match(r model.CrashRecord) bool {
	if f.County != "" && !strings.EqualFold(f.County, r.County) {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, r.City) {
		return false
	}
	if f.Weather != "" && !strings.EqualFold(f.Weather, r.Weather) {
		return false
	}
	if f.Route != "" && !strings.EqualFold(f.Route, r.Route) {
		return false
	}
	if f.YearMin != 0 && r.Year < f.YearMin {
		return false
	}
	if f.YearMax != 0 && r.Year > f.YearMax {
		return false
	}
	return true
}

// Apply returns the records passing the filter, preserving input order.
func (f Filter) Apply(records []model.CrashRecord) []model.CrashRecord {
	if f == (Filter{}) {
		return records
	}
	var out []model.CrashRecord
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// DefaultTopN returns the hotspot table size appropriate for the
// filter's geographic breadth: a county view shows 5, a city view 3,
// the statewide view 10.
func DefaultTopN(f Filter) int {
	switch {
	case f.County != "":
		return 5
	case f.City != "":
		return 3
	default:
		return 10
	}
}

var titleCaser = cases.Title(language.AmericanEnglish)

// NormalizeName cleans a FARS place name: the "(31)" numeric code suffix
// is dropped and SCREAMING CASE becomes title case, so "ADAMS (1)"
// normalizes to "Adams".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "("); i > 0 {
		name = strings.TrimSpace(name[:i])
	}
	if name == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(name))
}
