// Package model defines the crash record domain types shared across the
// ingestion, clustering, and reporting layers.
package model

import (
	"encoding/json"
	"math"
)

// FARS encodes unreported coordinates as sentinel values rather than
// leaving the fields empty. Records carrying them must be excluded from
// any spatial computation.
var latitudeSentinels = map[float64]bool{
	77.7777: true, // not reported
	88.8888: true, // reported as unknown
	99.9999: true, // unknown
}

var longitudeSentinels = map[float64]bool{
	777.7777: true,
	888.8888: true,
	999.9999: true,
}

// CrashRecord is an immutable input row describing a single fatal crash.
// Latitude and longitude are in decimal degrees. Fatalities is the FATALS
// count for the crash. Attribute columns beyond the ones named here ride
// along in Properties untouched.
type CrashRecord struct {
	ID         string          `json:"id,omitempty"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Fatalities int             `json:"fatalities"`
	Year       int             `json:"year,omitempty"`
	County     string          `json:"county,omitempty"`
	City       string          `json:"city,omitempty"`
	Weather    string          `json:"weather,omitempty"`
	Route      string          `json:"route,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// HasValidCoordinates reports whether the record carries usable
// coordinates: finite, inside the valid degree ranges, and not a FARS
// unknown-location sentinel.
func (r CrashRecord) HasValidCoordinates() bool {
	if math.IsNaN(r.Latitude) || math.IsInf(r.Latitude, 0) {
		return false
	}
	if math.IsNaN(r.Longitude) || math.IsInf(r.Longitude, 0) {
		return false
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return false
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return false
	}
	if latitudeSentinels[r.Latitude] || longitudeSentinels[r.Longitude] {
		return false
	}
	return true
}
