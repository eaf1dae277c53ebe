package hotspot

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/cluster"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// Summary holds the aggregate view of one non-noise cluster. Summaries
// are built fresh on every run and never mutated afterwards.
type Summary struct {
	ClusterID     int     `json:"cluster_id"`
	CrashCount    int     `json:"crash_count"`
	FatalitySum   int     `json:"fatality_sum"`
	CentroidLat   float64 `json:"centroid_lat"`
	CentroidLon   float64 `json:"centroid_lon"`
	DispersionDeg float64 `json:"dispersion_deg"`
	Tier          string  `json:"tier"`
	Color         string  `json:"color"`
}

// Summarize produces one Summary per distinct non-noise cluster id in
// labels, ordered by ascending id. records and labels must be parallel
// slices (records[i] carries label labels[i]); noise points are skipped.
// An all-noise or empty assignment yields an empty result, not an
// error: no hotspots were found.
func Summarize(records []model.CrashRecord, labels cluster.Assignment) []Summary {
	groups := make(map[int][]int)
	for i, id := range labels {
		if id == cluster.Noise {
			continue
		}
		groups[id] = append(groups[id], i)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, summarizeOne(records, id, groups[id]))
	}
	return summaries
}

func summarizeOne(records []model.CrashRecord, id int, members []int) Summary {
	lats := make([]float64, len(members))
	lons := make([]float64, len(members))
	fatalities := 0
	for i, idx := range members {
		lats[i] = records[idx].Latitude
		lons[i] = records[idx].Longitude
		fatalities += records[idx].Fatalities
	}

	centroidLat := stat.Mean(lats, nil)
	centroidLon := stat.Mean(lons, nil)

	// RMS distance from the centroid, in degrees. Used by callers to
	// size hotspot markers relative to the cluster's footprint.
	d2 := make([]float64, len(members))
	for i := range members {
		dLat := lats[i] - centroidLat
		dLon := lons[i] - centroidLon
		d2[i] = dLat*dLat + dLon*dLon
	}
	dispersion := math.Sqrt(stat.Mean(d2, nil))

	tier, color := Classify(fatalities)

	return Summary{
		ClusterID:     id,
		CrashCount:    len(members),
		FatalitySum:   fatalities,
		CentroidLat:   centroidLat,
		CentroidLon:   centroidLon,
		DispersionDeg: dispersion,
		Tier:          tier,
		Color:         color,
	}
}
