package hotspot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/cluster"
	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/model"
)

func TestSummarize_Basic(t *testing.T) {
	records := []model.CrashRecord{
		{Latitude: 39.70, Longitude: -104.90, Fatalities: 2},
		{Latitude: 39.72, Longitude: -104.92, Fatalities: 3},
		{Latitude: 38.20, Longitude: -106.00, Fatalities: 10},
	}
	labels := cluster.Assignment{0, 0, 1}

	summaries := Summarize(records, labels)
	require.Len(t, summaries, 2)

	s0 := summaries[0]
	assert.Equal(t, 0, s0.ClusterID)
	assert.Equal(t, 2, s0.CrashCount)
	assert.Equal(t, 5, s0.FatalitySum)
	assert.InDelta(t, 39.71, s0.CentroidLat, 1e-9)
	assert.InDelta(t, -104.91, s0.CentroidLon, 1e-9)
	assert.Equal(t, TierLowDanger, s0.Tier)
	assert.Equal(t, ColorGreen, s0.Color)

	s1 := summaries[1]
	assert.Equal(t, 1, s1.ClusterID)
	assert.Equal(t, 1, s1.CrashCount)
	assert.Equal(t, 10, s1.FatalitySum)
	assert.InDelta(t, 38.20, s1.CentroidLat, 1e-9)
	assert.Equal(t, TierLowDanger, s1.Tier)
	assert.Zero(t, s1.DispersionDeg, "single-point cluster has no spread")
}

func TestSummarize_NoiseExcluded(t *testing.T) {
	records := []model.CrashRecord{
		{Latitude: 39.70, Longitude: -104.90, Fatalities: 60},
		{Latitude: 40.00, Longitude: -105.00, Fatalities: 4},
	}
	labels := cluster.Assignment{0, cluster.Noise}

	summaries := Summarize(records, labels)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].ClusterID)
	assert.Equal(t, 60, summaries[0].FatalitySum)
	assert.Equal(t, TierMild, summaries[0].Tier)
}

func TestSummarize_AllNoise(t *testing.T) {
	records := []model.CrashRecord{
		{Latitude: 39.70, Longitude: -104.90, Fatalities: 1},
		{Latitude: 40.00, Longitude: -105.00, Fatalities: 1},
	}
	labels := cluster.Assignment{cluster.Noise, cluster.Noise}

	assert.Empty(t, Summarize(records, labels))
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil, nil))
}

func TestSummarize_CountsPartitionInput(t *testing.T) {
	records := []model.CrashRecord{
		{Latitude: 1, Longitude: 1, Fatalities: 1},
		{Latitude: 2, Longitude: 2, Fatalities: 1},
		{Latitude: 3, Longitude: 3, Fatalities: 1},
		{Latitude: 4, Longitude: 4, Fatalities: 1},
		{Latitude: 5, Longitude: 5, Fatalities: 1},
	}
	labels := cluster.Assignment{0, 1, 0, cluster.Noise, 1}

	summaries := Summarize(records, labels)
	total := labels.Counts()[cluster.Noise]
	for _, s := range summaries {
		total += s.CrashCount
	}
	assert.Equal(t, len(records), total)
}

func TestSummarize_TierBoundaryFromSum(t *testing.T) {
	// 40 + 60 = 100 crosses into Danger even though no single record does.
	records := []model.CrashRecord{
		{Latitude: 39.70, Longitude: -104.90, Fatalities: 40},
		{Latitude: 39.71, Longitude: -104.91, Fatalities: 60},
	}
	labels := cluster.Assignment{0, 0}

	summaries := Summarize(records, labels)
	require.Len(t, summaries, 1)
	assert.Equal(t, TierDanger, summaries[0].Tier)
	assert.Equal(t, ColorRed, summaries[0].Color)
}
