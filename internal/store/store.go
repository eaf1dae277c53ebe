// Package store persists imported crash records in SQLite or PostgreSQL.
package store

import (
	"context"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// crashColumns is the column order used by both backends for inserts and
// scans.
var crashColumns = []string{
	"id", "latitude", "longitude", "fatalities", "year",
	"county", "city", "weather", "route", "properties",
}

// Store defines the persistence interface for crash records.
type Store interface {
	// ImportCrashes writes a batch of records. Records without an ID are
	// assigned one. Returns the number of rows written.
	ImportCrashes(ctx context.Context, records []model.CrashRecord) (int64, error)

	// ListCrashes returns records matching the filter, in import order.
	ListCrashes(ctx context.Context, f ingest.Filter) ([]model.CrashRecord, error)

	// CountCrashes returns the total number of stored records.
	CountCrashes(ctx context.Context) (int64, error)

	// DeleteYear removes all records for a data year, ahead of re-import.
	DeleteYear(ctx context.Context, year int) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
