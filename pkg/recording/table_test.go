package recording

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-spotter/pkg/localize"
	"github.com/xuri/excelize/v2"
)

func TestXLSXTable_WritesRowsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xyz_coordinates.xlsx")
	base := time.Date(2026, 10, 18, 14, 0, 0, 0, time.UTC)

	points := []localize.Point{
		{Position: r3.Vector{X: 0.1, Y: 0.2, Z: 1.5}, Timestamp: base},
		{Position: r3.Vector{X: -0.25, Y: 0, Z: 1.25}, Timestamp: base.Add(16 * time.Millisecond)},
		{Position: r3.Vector{X: 0.5, Y: 0.75, Z: 0}, Timestamp: base.Add(33 * time.Millisecond)},
	}
	summary := Summarize(points)
	summary.SessionID = "abc"

	require.NoError(t, XLSXTable{}.WriteTable(path, points, summary))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(PointsSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(points)+1)
	assert.Equal(t, Columns, rows[0])

	for i, p := range points {
		row := rows[i+1]
		require.Len(t, row, 4)
		assert.NotEmpty(t, row[0])
		for j, want := range []float64{p.Position.X, p.Position.Y, p.Position.Z} {
			got, err := strconv.ParseFloat(row[j+1], 64)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-9)
		}
	}

	// Timestamps are sortable text in the chosen format.
	assert.Less(t, rows[1][0], rows[2][0])
	assert.Less(t, rows[2][0], rows[3][0])

	summaryRows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Session", "abc"}, summaryRows[0])
	assert.Equal(t, []string{"Rows", "3"}, summaryRows[1])
}

func TestXLSXTable_EmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, XLSXTable{}.WriteTable(path, nil, Summarize(nil)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(PointsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Columns, rows[0])
}

func TestXLSXTable_BadPath(t *testing.T) {
	err := XLSXTable{}.WriteTable(filepath.Join(t.TempDir(), "missing", "dir", "t.xlsx"), nil, Summary{})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, AxisStats{}, s.Z)
	})

	t.Run("single point has zero spread", func(t *testing.T) {
		s := Summarize([]localize.Point{{Position: r3.Vector{X: 1, Y: 2, Z: 3}}})
		assert.Equal(t, 1, s.Count)
		assert.Equal(t, 3.0, s.Z.Mean)
		assert.Equal(t, 0.0, s.Z.StdDev)
	})

	t.Run("mean and sample stddev", func(t *testing.T) {
		base := time.Unix(0, 0)
		s := Summarize([]localize.Point{
			{Position: r3.Vector{Z: 1}, Timestamp: base},
			{Position: r3.Vector{Z: 2}, Timestamp: base.Add(time.Second)},
			{Position: r3.Vector{Z: 3}, Timestamp: base.Add(2 * time.Second)},
		})
		assert.InDelta(t, 2.0, s.Z.Mean, 1e-12)
		assert.InDelta(t, 1.0, s.Z.StdDev, 1e-12)
		assert.Equal(t, 2*time.Second, s.Duration)
	})
}
