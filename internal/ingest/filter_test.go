package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

func filterRecords() []model.CrashRecord {
	return []model.CrashRecord{
		{County: "Denver", City: "Denver", Year: 2018, Weather: "Clear", Route: "Interstate"},
		{County: "Denver", City: "Denver", Year: 2021, Weather: "Rain", Route: "Local Street"},
		{County: "El Paso", City: "Colorado Springs", Year: 2020, Weather: "Clear", Route: "US Highway"},
		{County: "Pueblo", City: "Pueblo", Year: 2022, Weather: "Snow", Route: "State Highway"},
	}
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no restriction", Filter{}, 4},
		{"by county", Filter{County: "Denver"}, 2},
		{"county case-insensitive", Filter{County: "denver"}, 2},
		{"by city", Filter{City: "Pueblo"}, 1},
		{"by weather", Filter{Weather: "Clear"}, 2},
		{"by route", Filter{Route: "US Highway"}, 1},
		{"year range", Filter{YearMin: 2020, YearMax: 2021}, 2},
		{"open-ended year min", Filter{YearMin: 2021}, 2},
		{"combined", Filter{County: "Denver", YearMin: 2020}, 1},
		{"no match", Filter{County: "Boulder"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.filter.Apply(filterRecords()), tt.want)
		})
	}
}

func TestDefaultTopN(t *testing.T) {
	assert.Equal(t, 10, DefaultTopN(Filter{}))
	assert.Equal(t, 5, DefaultTopN(Filter{County: "Denver"}))
	assert.Equal(t, 3, DefaultTopN(Filter{City: "Denver"}))
	// County wins when both are set, matching the narrowing order of the
	// filter surface.
	assert.Equal(t, 5, DefaultTopN(Filter{County: "Denver", City: "Denver"}))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ADAMS (1)", "Adams"},
		{"EL PASO (41)", "El Paso"},
		{"COLORADO SPRINGS (1225)", "Colorado Springs"},
		{"Denver", "Denver"},
		{"  BOULDER  ", "Boulder"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}
