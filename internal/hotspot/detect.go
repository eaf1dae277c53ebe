package hotspot

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/cluster"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

// Options control a detection run. Eps and MinSamples are handed to the
// clustering engine; TopN and RankBy drive the ranked output;
// IncludeNoise keeps unclustered points in the result for callers that
// render them.
type Options struct {
	Eps          float64
	MinSamples   int
	TopN         int
	RankBy       RankKey
	IncludeNoise bool
	Workers      int
}

// ClusteredPoint is one valid-coordinate record with its cluster label.
// RecordIndex points back into the caller's record slice so any extra
// attributes on the record ride along untouched.
type ClusteredPoint struct {
	RecordIndex int     `json:"record_index"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ClusterID   int     `json:"cluster_id"`
}

// Result is the annotated output of one detection run. It is built
// fresh per call and shares no state with other runs.
type Result struct {
	// Points holds every clustered record; noise points are present
	// only when Options.IncludeNoise was set.
	Points []ClusteredPoint `json:"points"`
	// Assignment is the raw label per valid-coordinate record, noise
	// included, aligned with the order the valid records were seen.
	Assignment cluster.Assignment `json:"assignment"`
	// Summaries covers all non-noise clusters, ascending by id.
	Summaries []Summary `json:"summaries"`
	// Ranked is the top-N view of Summaries per Options.RankBy.
	Ranked []RankedSummary `json:"ranked"`
	// Skipped counts input records excluded for invalid coordinates.
	Skipped int `json:"skipped"`
}

// Detect runs the full pipeline: coordinate validation, clustering,
// aggregation, ranking. It is a pure function of its inputs; nothing is
// cached or carried between calls.
func Detect(records []model.CrashRecord, opts Options) (*Result, error) {
	if opts.TopN < 1 {
		return nil, eris.Wrapf(cluster.ErrInvalidParameter, "top_n must be >= 1, got %d", opts.TopN)
	}
	if opts.RankBy == "" {
		opts.RankBy = ByFatalities
	}

	valid := make([]model.CrashRecord, 0, len(records))
	indices := make([]int, 0, len(records))
	for i, r := range records {
		if r.HasValidCoordinates() {
			valid = append(valid, r)
			indices = append(indices, i)
		}
	}
	skipped := len(records) - len(valid)

	points := make([]cluster.Point, len(valid))
	for i, r := range valid {
		points[i] = cluster.Point{Lat: r.Latitude, Lon: r.Longitude}
	}

	labels, err := cluster.DBSCAN(points, cluster.Params{
		Eps:        opts.Eps,
		MinSamples: opts.MinSamples,
		Workers:    opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	summaries := Summarize(valid, labels)
	ranked := Rank(summaries, opts.RankBy, opts.TopN)

	clustered := make([]ClusteredPoint, 0, len(valid))
	for i, id := range labels {
		if id == cluster.Noise && !opts.IncludeNoise {
			continue
		}
		clustered = append(clustered, ClusteredPoint{
			RecordIndex: indices[i],
			Latitude:    valid[i].Latitude,
			Longitude:   valid[i].Longitude,
			ClusterID:   id,
		})
	}

	zap.L().Debug("hotspot detection complete",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
		zap.Int("clusters", labels.NumClusters()),
		zap.Int("ranked", len(ranked)),
	)

	return &Result{
		Points:     clustered,
		Assignment: labels,
		Summaries:  summaries,
		Ranked:     ranked,
		Skipped:    skipped,
	}, nil
}
