// Package cluster implements density-based spatial clustering (DBSCAN)
// over crash coordinates.
//
// Distance is planar Euclidean over raw (lat, lon) degree pairs, not
// great-circle distance. This is only appropriate at the scale of a
// single state or region; do not swap in a geodesic metric, downstream
// eps values are calibrated in degrees.
package cluster

import (
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Noise is the assignment label for points that belong to no cluster.
const Noise = -1

// unclassified marks points the scan has not reached yet. It never
// appears in a returned Assignment.
const unclassified = -2

// Point is a crash location in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Params controls a DBSCAN run. Eps is the neighborhood radius in the
// coordinate units (degrees); MinSamples is the minimum neighborhood
// size for a core point, counting the point itself. Workers bounds the
// parallelism of the neighbor precomputation step; <= 1 means serial,
// 0 picks GOMAXPROCS.
type Params struct {
	Eps        float64
	MinSamples int
	Workers    int
}

// Sentinel errors reported by DBSCAN. Callers match with eris.Is.
var (
	// ErrInvalidParameter is returned when eps or min_samples cannot
	// produce a meaningful partition. Invalid values are never coerced.
	ErrInvalidParameter = eris.New("cluster: invalid parameter")

	// ErrNoValidPoints is returned when the input contains no points to
	// cluster, so the caller can distinguish "nothing to do" from a run
	// that found no dense regions.
	ErrNoValidPoints = eris.New("cluster: no valid points")
)

// Assignment maps each input point index to a cluster id. Ids are
// assigned in discovery order starting at 0 and carry no meaning beyond
// identity; Noise marks outliers.
type Assignment []int

// NumClusters returns the number of distinct non-noise clusters.
func (a Assignment) NumClusters() int {
	max := -1
	for _, id := range a {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// Counts returns the number of points per label, including Noise.
func (a Assignment) Counts() map[int]int {
	counts := make(map[int]int)
	for _, id := range a {
		counts[id]++
	}
	return counts
}

// Validate checks params without running anything.
func (p Params) Validate() error {
	if p.Eps <= 0 {
		return eris.Wrapf(ErrInvalidParameter, "eps must be > 0, got %v", p.Eps)
	}
	if p.MinSamples < 1 {
		return eris.Wrapf(ErrInvalidParameter, "min_samples must be >= 1, got %d", p.MinSamples)
	}
	return nil
}

// DBSCAN partitions points into density-connected clusters and noise.
//
// A point is a core point when at least MinSamples points (itself
// included) lie within Eps of it. Clusters grow from core points; border
// points within Eps of a core point join its cluster but do not extend
// it further. Every input point receives exactly one label.
//
// The partition is deterministic for a given input order and parameters.
// Workers only parallelizes the per-point neighborhood queries; the
// expansion that assigns labels is sequential.
func DBSCAN(points []Point, params Params) (Assignment, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, eris.Wrap(ErrNoValidPoints, "cluster: empty input")
	}

	index := newGridIndex(points, params.Eps)
	neighborhoods := buildNeighborhoods(points, index, params)

	labels := make(Assignment, len(points))
	for i := range labels {
		labels[i] = unclassified
	}

	nextID := 0
	for i := range points {
		if labels[i] != unclassified {
			continue
		}

		seeds := neighborhoods[i]
		if len(seeds) < params.MinSamples {
			labels[i] = Noise
			continue
		}

		expand(labels, neighborhoods, i, seeds, nextID, params.MinSamples)
		nextID++
	}

	return labels, nil
}

// expand grows cluster id from core point seedIdx over its seeds,
// queue-style: border points are claimed but only core points contribute
// further seeds.
func expand(labels Assignment, neighborhoods [][]int, seedIdx int, seeds []int, id, minSamples int) {
	labels[seedIdx] = id

	queue := append([]int(nil), seeds...)
	for j := 0; j < len(queue); j++ {
		idx := queue[j]

		if labels[idx] == Noise {
			labels[idx] = id // noise within reach of a core point becomes a border point
		}
		if labels[idx] != unclassified {
			continue
		}
		labels[idx] = id

		if next := neighborhoods[idx]; len(next) >= minSamples {
			queue = append(queue, next...)
		}
	}
}

// buildNeighborhoods precomputes the eps-neighborhood of every point.
// With Workers > 1 the queries run in parallel over disjoint ranges;
// results are identical to the serial path.
func buildNeighborhoods(points []Point, index *gridIndex, params Params) [][]int {
	neighborhoods := make([][]int, len(points))

	workers := params.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers <= 1 || len(points) < 2*workers {
		for i := range points {
			neighborhoods[i] = index.neighbors(points, i, params.Eps)
		}
		return neighborhoods
	}

	var g errgroup.Group
	chunk := (len(points) + workers - 1) / workers
	for start := 0; start < len(points); start += chunk {
		end := start + chunk
		if end > len(points) {
			end = len(points)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				neighborhoods[i] = index.neighbors(points, i, params.Eps)
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return neighborhoods
}
