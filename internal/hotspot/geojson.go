package hotspot

import (
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/cluster"
)

// ToGeoJSON converts a detection result into a FeatureCollection for the
// rendering layer: one point feature per ranked hotspot centroid, plus
// one per noise point when the result carries them. GeoJSON coordinate
// order is (lon, lat).
func ToGeoJSON(result *Result) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}

	for _, r := range result.Ranked {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{r.CentroidLon, r.CentroidLat}).SetSRID(4326),
			Properties: map[string]interface{}{
				"display_rank":   r.DisplayRank,
				"cluster_id":     r.ClusterID,
				"crash_count":    r.CrashCount,
				"fatality_sum":   r.FatalitySum,
				"tier":           r.Tier,
				"color":          r.Color,
				"dispersion_deg": r.DispersionDeg,
			},
		})
	}

	for _, p := range result.Points {
		if p.ClusterID != cluster.Noise {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}).SetSRID(4326),
			Properties: map[string]interface{}{
				"noise": true,
				"color": "black",
			},
		})
	}

	return fc
}
