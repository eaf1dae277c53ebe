package ingest

import (
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// ReadShapefile loads crash records from a point shapefile, the format
// most state DOT crash layers ship in. Coordinates come from the point
// geometry (X=lon, Y=lat); fatality and attribute columns come from the
// DBF attribute table, matched case-insensitively against the same
// column names the CSV ingester recognizes. Non-point shapes are
// skipped with a warning.
func ReadShapefile(path string) ([]model.CrashRecord, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var records []model.CrashRecord
	skipped := 0
	for reader.Next() {
		_, shape := reader.Shape()
		point, ok := shape.(*shp.Point)
		if !ok {
			skipped++
			continue
		}

		rec := model.CrashRecord{
			Latitude:  point.Y,
			Longitude: point.X,
			County:    NormalizeName(attr(colCounty)),
			City:      NormalizeName(attr(colCity)),
			Weather:   attr(colWeather),
			Route:     attr(colRoute),
		}
		if v := attr(colFatalities); v != "" {
			if fat, err := strconv.Atoi(v); err == nil && fat >= 0 {
				rec.Fatalities = fat
			}
		}
		if v := attr(colYear); v != "" {
			if year, err := strconv.Atoi(v); err == nil {
				rec.Year = year
			}
		}

		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "ingest: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Warn("skipped non-point shapes", zap.Int("count", skipped), zap.String("path", path))
	}
	zap.L().Info("parsed crash shapefile", zap.Int("records", len(records)), zap.String("path", path))
	return records, nil
}
