package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/MiningCrashPatterns/crash-hotspot-detection/internal/hotspot"
)

func TestWriteXLSX(t *testing.T) {
	result := &hotspot.Result{
		Summaries: []hotspot.Summary{
			{ClusterID: 0, CrashCount: 4, FatalitySum: 120, CentroidLat: 39.7, CentroidLon: -104.9, Tier: hotspot.TierDanger, Color: hotspot.ColorRed},
			{ClusterID: 1, CrashCount: 2, FatalitySum: 10, CentroidLat: 40.0, CentroidLon: -105.3, Tier: hotspot.TierLowDanger, Color: hotspot.ColorGreen},
		},
	}
	result.Ranked = []hotspot.RankedSummary{
		{Summary: result.Summaries[0], DisplayRank: 1},
		{Summary: result.Summaries[1], DisplayRank: 2},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, result))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	ranked := f.Sheets[0]
	assert.Equal(t, "Ranked Hotspots", ranked.Name)
	require.Len(t, ranked.Rows, 3)
	assert.Equal(t, "Rank", ranked.Rows[0].Cells[0].String())
	assert.Equal(t, "1", ranked.Rows[1].Cells[0].String())
	assert.Equal(t, "120", ranked.Rows[1].Cells[3].String())
	assert.Equal(t, "Danger", ranked.Rows[1].Cells[4].String())

	clusters := f.Sheets[1]
	assert.Equal(t, "All Clusters", clusters.Name)
	require.Len(t, clusters.Rows, 3)
	assert.Equal(t, "green", clusters.Rows[2].Cells[4].String())
}

func TestWriteXLSXEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, &hotspot.Result{}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Len(t, f.Sheets[0].Rows, 1)
}
