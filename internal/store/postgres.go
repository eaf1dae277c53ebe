package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/db"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/ingest"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS crashes (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	fatalities INTEGER NOT NULL DEFAULT 0,
	year       INTEGER,
	county     TEXT,
	city       TEXT,
	weather    TEXT,
	route      TEXT,
	properties JSONB
);

CREATE INDEX IF NOT EXISTS idx_crashes_year ON crashes(year);
CREATE INDEX IF NOT EXISTS idx_crashes_county ON crashes(county);
CREATE INDEX IF NOT EXISTS idx_crashes_city ON crashes(city);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ImportCrashes(ctx context.Context, records []model.CrashRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		var props any
		if len(r.Properties) > 0 {
			props = string(r.Properties)
		}
		rows = append(rows, []any{
			id, r.Latitude, r.Longitude, r.Fatalities, r.Year,
			r.County, r.City, r.Weather, r.Route, props,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "crashes",
		Columns:      crashColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import crashes")
	}
	return n, nil
}

func (s *PostgresStore) ListCrashes(ctx context.Context, f ingest.Filter) ([]model.CrashRecord, error) {
	var (
		clauses []string
		args    []any
	)
	addEq := func(col, val string) {
		if val != "" {
			args = append(args, val)
			clauses = append(clauses, "UPPER("+col+") = UPPER($"+strconv.Itoa(len(args))+")")
		}
	}
	addEq("county", f.County)
	addEq("city", f.City)
	addEq("weather", f.Weather)
	addEq("route", f.Route)
	if f.YearMin > 0 {
		args = append(args, f.YearMin)
		clauses = append(clauses, "year >= $"+strconv.Itoa(len(args)))
	}
	if f.YearMax > 0 {
		args = append(args, f.YearMax)
		clauses = append(clauses, "year <= $"+strconv.Itoa(len(args)))
	}

	query := "SELECT id, latitude, longitude, fatalities, year, county, city, weather, route, properties FROM crashes"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list crashes")
	}
	defer rows.Close()

	var records []model.CrashRecord
	for rows.Next() {
		var (
			r     model.CrashRecord
			props *string
		)
		if err := rows.Scan(
			&r.ID, &r.Latitude, &r.Longitude, &r.Fatalities, &r.Year,
			&r.County, &r.City, &r.Weather, &r.Route, &props,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan crash")
		}
		if props != nil && *props != "" {
			r.Properties = json.RawMessage(*props)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate crashes")
	}
	return records, nil
}

func (s *PostgresStore) CountCrashes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM crashes`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count crashes")
	}
	return n, nil
}

func (s *PostgresStore) DeleteYear(ctx context.Context, year int) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crashes WHERE year = $1`, year)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: delete year %d", year)
	}
	return tag.RowsAffected(), nil
}
