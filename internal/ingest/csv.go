// Package ingest parses crash datasets (FARS-style CSV exports and point
// shapefiles) into CrashRecord rows and applies attribute filters.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// Columns recognized in FARS accident files. Any other column is carried
// through in the record's Properties blob.
const (
	colLatitude   = "LATITUDE"
	colLongitude  = "LONGITUD"
	colFatalities = "FATALS"
	colYear       = "YEAR"
	colCounty     = "COUNTYNAME"
	colCity       = "CITYNAME"
	colWeather    = "WEATHERNAME"
	colRoute      = "ROUTENAME"
)

// ReadCSV parses a FARS-style accident CSV into crash records. The first
// row must be a header; column order is free and matching is
// case-insensitive. Rows with unparsable latitude/longitude are kept
// (the clustering layer decides what to do with invalid coordinates),
// but a row with the wrong field count is an error.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.CrashRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: empty csv input")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	if _, ok := colIdx[colLatitude]; !ok {
		return nil, eris.Errorf("ingest: missing required column %s", colLatitude)
	}
	if _, ok := colIdx[colLongitude]; !ok {
		return nil, eris.Errorf("ingest: missing required column %s", colLongitude)
	}

	var records []model.CrashRecord
	line := 1
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: csv read cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read csv row %d", line)
		}
		line++

		rec, err := rowToRecord(header, colIdx, row)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: csv row %d", line)
		}
		records = append(records, rec)
	}

	zap.L().Info("parsed crash csv", zap.Int("records", len(records)))
	return records, nil
}

func rowToRecord(header []string, colIdx map[string]int, row []string) (model.CrashRecord, error) {
	field := func(name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := model.CrashRecord{
		County:  NormalizeName(field(colCounty)),
		City:    NormalizeName(field(colCity)),
		Weather: field(colWeather),
		Route:   field(colRoute),
	}

	// Unparsable coordinates become NaN-free sentinels out of range so
	// the record survives ingestion but fails HasValidCoordinates.
	rec.Latitude = parseCoord(field(colLatitude), 99.9999)
	rec.Longitude = parseCoord(field(colLongitude), 999.9999)

	if v := field(colFatalities); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return rec, eris.Wrapf(err, "parse %s", colFatalities)
		}
		if n < 0 {
			return rec, eris.Errorf("negative %s value %d", colFatalities, n)
		}
		rec.Fatalities = n
	}
	if v := field(colYear); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return rec, eris.Wrapf(err, "parse %s", colYear)
		}
		rec.Year = n
	}

	extra := make(map[string]string)
	known := map[string]bool{
		colLatitude: true, colLongitude: true, colFatalities: true,
		colYear: true, colCounty: true, colCity: true,
		colWeather: true, colRoute: true,
	}
	for i, name := range header {
		key := strings.ToUpper(strings.TrimSpace(name))
		if known[key] || i >= len(row) {
			continue
		}
		extra[key] = strings.TrimSpace(row[i])
	}
	if len(extra) > 0 {
		props, err := json.Marshal(extra)
		if err != nil {
			return rec, eris.Wrap(err, "marshal extra columns")
		}
		rec.Properties = props
	}

	return rec, nil
}

func parseCoord(s string, invalid float64) float64 {
	if s == "" {
		return invalid
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return invalid
	}
	return v
}
