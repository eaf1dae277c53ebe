// Package export writes detection results to report formats.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/hotspot"
)

// WriteXLSX writes a detection result as an Excel workbook with a ranked
// hotspot sheet and a sheet listing every cluster.
func WriteXLSX(path string, result *hotspot.Result) error {
	f := xlsx.NewFile()

	ranked, err := f.AddSheet("Ranked Hotspots")
	if err != nil {
		return eris.Wrap(err, "export: add ranked sheet")
	}
	header := ranked.AddRow()
	for _, h := range []string{"Rank", "Cluster", "Crashes", "Fatalities", "Tier", "Centroid Lat", "Centroid Lon"} {
		header.AddCell().SetString(h)
	}
	for _, r := range result.Ranked {
		row := ranked.AddRow()
		row.AddCell().SetInt(r.DisplayRank)
		row.AddCell().SetInt(r.ClusterID)
		row.AddCell().SetInt(r.CrashCount)
		row.AddCell().SetInt(r.FatalitySum)
		row.AddCell().SetString(r.Tier)
		row.AddCell().SetFloat(r.CentroidLat)
		row.AddCell().SetFloat(r.CentroidLon)
	}

	clusters, err := f.AddSheet("All Clusters")
	if err != nil {
		return eris.Wrap(err, "export: add clusters sheet")
	}
	header = clusters.AddRow()
	for _, h := range []string{"Cluster", "Crashes", "Fatalities", "Tier", "Color", "Centroid Lat", "Centroid Lon", "Dispersion"} {
		header.AddCell().SetString(h)
	}
	for _, s := range result.Summaries {
		row := clusters.AddRow()
		row.AddCell().SetInt(s.ClusterID)
		row.AddCell().SetInt(s.CrashCount)
		row.AddCell().SetInt(s.FatalitySum)
		row.AddCell().SetString(s.Tier)
		row.AddCell().SetString(s.Color)
		row.AddCell().SetFloat(s.CentroidLat)
		row.AddCell().SetFloat(s.CentroidLon)
		row.AddCell().SetFloat(s.DispersionDeg)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}
