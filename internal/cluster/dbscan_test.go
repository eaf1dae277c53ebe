package cluster

import (
	"math"
	"sort"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBlobs returns two tight groups of points far apart plus one remote
// straggler.
func twoBlobs() []Point {
	return []Point{
		{Lat: 39.70, Lon: -104.90},
		{Lat: 39.71, Lon: -104.91},
		{Lat: 39.72, Lon: -104.90},
		{Lat: 39.70, Lon: -104.92},

		{Lat: 38.20, Lon: -106.00},
		{Lat: 38.21, Lon: -106.01},
		{Lat: 38.22, Lon: -106.00},

		{Lat: 40.90, Lon: -108.50}, // straggler
	}
}

// partition reduces labels to a canonical form independent of label
// values: a sorted list of sorted member-index groups, noise separate.
func partition(labels Assignment) (clusters [][]int, noise []int) {
	byID := make(map[int][]int)
	for i, id := range labels {
		if id == Noise {
			noise = append(noise, i)
			continue
		}
		byID[id] = append(byID[id], i)
	}
	for _, members := range byID {
		sort.Ints(members)
		clusters = append(clusters, members)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0] < clusters[j][0] })
	return clusters, noise
}

// corePoints counts core points with a naive O(n^2) neighborhood scan,
// independent of the grid index under test.
func corePoints(points []Point, eps float64, minSamples int) int {
	count := 0
	for _, p := range points {
		n := 0
		for _, q := range points {
			dLat := q.Lat - p.Lat
			dLon := q.Lon - p.Lon
			if dLat*dLat+dLon*dLon <= eps*eps {
				n++
			}
		}
		if n >= minSamples {
			count++
		}
	}
	return count
}

func TestDBSCAN_TwoBlobs(t *testing.T) {
	labels, err := DBSCAN(twoBlobs(), Params{Eps: 0.05, MinSamples: 3})
	require.NoError(t, err)
	require.Len(t, labels, 8)

	clusters, noise := partition(labels)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int{0, 1, 2, 3}, clusters[0])
	assert.Equal(t, []int{4, 5, 6}, clusters[1])
	assert.Equal(t, []int{7}, noise)

	// Ids are assigned in discovery order from zero.
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[4])
	assert.Equal(t, 2, labels.NumClusters())
}

func TestDBSCAN_Totality(t *testing.T) {
	points := twoBlobs()
	labels, err := DBSCAN(points, Params{Eps: 0.05, MinSamples: 3})
	require.NoError(t, err)

	total := 0
	for _, n := range labels.Counts() {
		total += n
	}
	assert.Equal(t, len(points), total)
	for _, id := range labels {
		assert.GreaterOrEqual(t, id, Noise)
	}
}

func TestDBSCAN_Deterministic(t *testing.T) {
	points := twoBlobs()
	params := Params{Eps: 0.05, MinSamples: 3}

	first, err := DBSCAN(points, params)
	require.NoError(t, err)
	second, err := DBSCAN(points, params)
	require.NoError(t, err)

	c1, n1 := partition(first)
	c2, n2 := partition(second)
	assert.Equal(t, c1, c2)
	assert.Equal(t, n1, n2)
}

func TestDBSCAN_ParallelMatchesSerial(t *testing.T) {
	// A larger scattered set so the parallel path actually splits work.
	var points []Point
	for i := 0; i < 200; i++ {
		points = append(points, Point{
			Lat: 39.0 + 0.01*float64(i%20),
			Lon: -105.0 - 0.01*float64(i/20),
		})
	}

	serial, err := DBSCAN(points, Params{Eps: 0.015, MinSamples: 4, Workers: 1})
	require.NoError(t, err)
	parallel, err := DBSCAN(points, Params{Eps: 0.015, MinSamples: 4, Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestDBSCAN_MinSamplesOne_NoNoise(t *testing.T) {
	labels, err := DBSCAN(twoBlobs(), Params{Eps: 0.0001, MinSamples: 1})
	require.NoError(t, err)

	// Every point is at minimum its own cluster.
	for i, id := range labels {
		assert.NotEqual(t, Noise, id, "point %d", i)
	}
	assert.Equal(t, 8, labels.NumClusters())
}

func TestDBSCAN_HugeEps_SingleCluster(t *testing.T) {
	labels, err := DBSCAN(twoBlobs(), Params{Eps: 1000, MinSamples: 1})
	require.NoError(t, err)

	for _, id := range labels {
		assert.Equal(t, 0, id)
	}
}

func TestDBSCAN_TinyEps_AllNoise(t *testing.T) {
	labels, err := DBSCAN(twoBlobs(), Params{Eps: 1e-9, MinSamples: 2})
	require.NoError(t, err)

	for _, id := range labels {
		assert.Equal(t, Noise, id)
	}
	assert.Equal(t, 0, labels.NumClusters())
}

func TestDBSCAN_BorderPointJoinsButDoesNotPropagate(t *testing.T) {
	// A dense core of five points, one border point within eps of two
	// core points, and a tail point within eps of only the border. The
	// tail must stay noise: border points are not propagation sources.
	points := []Point{
		{Lat: 0.000, Lon: 0.000},
		{Lat: 0.010, Lon: 0.000},
		{Lat: 0.000, Lon: 0.010},
		{Lat: 0.010, Lon: 0.010},
		{Lat: 0.005, Lon: 0.005},
		{Lat: 0.052, Lon: 0.005}, // border: reaches cores 1 and 3 only
		{Lat: 0.094, Lon: 0.005}, // tail: reaches only the border
	}

	labels, err := DBSCAN(points, Params{Eps: 0.045, MinSamples: 5})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, labels[i], "core point %d", i)
	}
	assert.Equal(t, 0, labels[5], "border point joins the cluster")
	assert.Equal(t, Noise, labels[6], "tail beyond any core point stays noise")
}

func TestDBSCAN_CorePointMonotonicity(t *testing.T) {
	points := twoBlobs()
	eps := 0.05

	prev := math.MaxInt
	for minSamples := 1; minSamples <= 6; minSamples++ {
		cores := corePoints(points, eps, minSamples)
		assert.LessOrEqual(t, cores, prev, "min_samples=%d", minSamples)
		prev = cores
	}
}

func TestDBSCAN_EmptyInput(t *testing.T) {
	_, err := DBSCAN(nil, Params{Eps: 0.1, MinSamples: 5})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoValidPoints))
}

func TestDBSCAN_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero eps", Params{Eps: 0, MinSamples: 5}},
		{"negative eps", Params{Eps: -0.1, MinSamples: 5}},
		{"zero min_samples", Params{Eps: 0.1, MinSamples: 0}},
		{"negative min_samples", Params{Eps: 0.1, MinSamples: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DBSCAN(twoBlobs(), tt.params)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidParameter))
		})
	}
}

func TestGridIndex_MatchesNaiveNeighbors(t *testing.T) {
	points := twoBlobs()
	eps := 0.05
	index := newGridIndex(points, eps)

	for i := range points {
		got := index.neighbors(points, i, eps)
		sort.Ints(got)

		var want []int
		for j, q := range points {
			dLat := q.Lat - points[i].Lat
			dLon := q.Lon - points[i].Lon
			if dLat*dLat+dLon*dLon <= eps*eps {
				want = append(want, j)
			}
		}
		assert.Equal(t, want, got, "neighbors of point %d", i)
	}
}
