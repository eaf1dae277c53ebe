package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS crashes (
	id         TEXT PRIMARY KEY,
	latitude   REAL NOT NULL,
	longitude  REAL NOT NULL,
	fatalities INTEGER NOT NULL DEFAULT 0,
	year       INTEGER,
	county     TEXT,
	city       TEXT,
	weather    TEXT,
	route      TEXT,
	properties TEXT
);

CREATE INDEX IF NOT EXISTS idx_crashes_year ON crashes(year);
CREATE INDEX IF NOT EXISTS idx_crashes_county ON crashes(county);
CREATE INDEX IF NOT EXISTS idx_crashes_city ON crashes(city);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ImportCrashes(ctx context.Context, records []model.CrashRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO crashes
			(id, latitude, longitude, fatalities, year, county, city, weather, route, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	var written int64
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		var props any
		if len(r.Properties) > 0 {
			props = string(r.Properties)
		}
		if _, err := stmt.ExecContext(ctx,
			id, r.Latitude, r.Longitude, r.Fatalities, r.Year,
			r.County, r.City, r.Weather, r.Route, props,
		); err != nil {
			return written, eris.Wrapf(err, "sqlite: insert crash %s", id)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, eris.Wrap(err, "sqlite: commit tx")
	}
	return written, nil
}

func (s *SQLiteStore) ListCrashes(ctx context.Context, f ingest.Filter) ([]model.CrashRecord, error) {
	var (
		clauses []string
		args    []any
	)
	addEq := func(col, val string) {
		if val != "" {
			clauses = append(clauses, "UPPER("+col+") = UPPER(?)")
			args = append(args, val)
		}
	}
	addEq("county", f.County)
	addEq("city", f.City)
	addEq("weather", f.Weather)
	addEq("route", f.Route)
	if f.YearMin > 0 {
		clauses = append(clauses, "year >= ?")
		args = append(args, f.YearMin)
	}
	if f.YearMax > 0 {
		clauses = append(clauses, "year <= ?")
		args = append(args, f.YearMax)
	}

	query := "SELECT id, latitude, longitude, fatalities, year, county, city, weather, route, properties FROM crashes"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list crashes")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.CrashRecord
	for rows.Next() {
		var (
			r     model.CrashRecord
			props sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.Latitude, &r.Longitude, &r.Fatalities, &r.Year,
			&r.County, &r.City, &r.Weather, &r.Route, &props,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan crash")
		}
		if props.Valid && props.String != "" {
			r.Properties = json.RawMessage(props.String)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate crashes")
	}
	return records, nil
}

func (s *SQLiteStore) CountCrashes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crashes`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count crashes")
	}
	return n, nil
}

func (s *SQLiteStore) DeleteYear(ctx context.Context, year int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM crashes WHERE year = ?`, year)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete year %d", year)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}
