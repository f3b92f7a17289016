package quality_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/quality"
	"moocdash/internal/table"
)

func tbl(cols []string, rows ...[]string) *table.Table {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = make(table.Row, len(r))
		for j, v := range r {
			out[i][j] = table.ParseCell(v)
		}
	}
	return table.New("t", cols, out)
}

func TestCompleteness(t *testing.T) {
	clean := datasettest.Clean()
	assert.InDelta(t, 0.85, quality.Completeness(clean), 1e-9)

	cols := quality.ColumnCompleteness(clean)
	require.Len(t, cols, 2)
	assert.Equal(t, 3, cols[0].NullCount)
	assert.InDelta(t, 0.7, cols[0].Completeness, 1e-9)
	assert.InDelta(t, 1.0, cols[1].Completeness, 1e-9)

	full := tbl([]string{"x"}, []string{"1"}, []string{"2"})
	assert.Equal(t, 1.0, quality.Completeness(full))
	assert.Equal(t, 1.0, quality.Completeness(table.Empty("e", "x", "y")))
}

func TestRowHistogram(t *testing.T) {
	h := quality.NewHistogram(quality.RowCompleteness(datasettest.Clean()), quality.RowHistogramBins)
	require.Len(t, h.Counts, 50)
	require.Len(t, h.Edges, 51)
	assert.Equal(t, 3, h.Counts[25])
	assert.Equal(t, 7, h.Counts[49])
}

func TestTopNullColumns(t *testing.T) {
	top := quality.TopNullColumns(datasettest.Clean(), 1)
	require.Len(t, top, 1)
	assert.Equal(t, "a", top[0].Column)
}

func TestProfile(t *testing.T) {
	p := quality.Profile(datasettest.Clean())
	require.Len(t, p, 2)
	assert.Equal(t, table.TypeFloat, p[0].Type)
	assert.InDelta(t, 30, p[0].NullPct, 1e-9)
	assert.Equal(t, 7, p[0].Unique)
	assert.Equal(t, table.TypeInt, p[1].Type)

	types := quality.TypeDistribution(p)
	assert.Len(t, types, 2)
}

func TestUniqueness(t *testing.T) {
	data := tbl([]string{"user_id", "course_id", "x"},
		[]string{"u1", "c1", "1"},
		[]string{"u1", "c1", "1"},
		[]string{"u1", "c1", "2"},
		[]string{"u2", "c1", "1"},
	)
	u := quality.Uniqueness(data)
	assert.Equal(t, 1, u.DuplicateRows)
	assert.InDelta(t, 0.75, u.Row, 1e-9)
	require.True(t, u.KeyStatus.Computable)
	assert.Equal(t, 2, u.DuplicateKeys)
	assert.InDelta(t, 0.5, u.Key, 1e-9)

	noKey := quality.Uniqueness(datasettest.Clean())
	assert.Equal(t, 1.0, noKey.Row)
	assert.False(t, noKey.KeyStatus.Computable)
	assert.Contains(t, noKey.KeyStatus.Reason, "user_id")

	assert.Equal(t, 1.0, quality.Uniqueness(table.Empty("e", "user_id", "course_id")).Key)
}

func TestQuantileLinear(t *testing.T) {
	assert.Equal(t, 2.5, quality.Quantile([]float64{1, 2, 3, 4}, 0.5))
	assert.Equal(t, 1.75, quality.Quantile([]float64{1, 2, 3, 4}, 0.25))
	assert.Equal(t, 7.0, quality.Quantile([]float64{7}, 0.75))
	assert.True(t, math.IsNaN(quality.Quantile(nil, 0.5)))
}

func TestOutliers(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 100}
	res, err := quality.Outliers(values)
	require.NoError(t, err)

	assert.Equal(t, 3.0, res.Q1)
	assert.Equal(t, 7.0, res.Q3)
	assert.Equal(t, -3.0, res.Lower)
	assert.Equal(t, 13.0, res.Upper)
	assert.Equal(t, 1, res.Count)
	assert.True(t, res.Flags[8])

	// границы симметричны относительно квартилей
	assert.InDelta(t, res.Upper-res.Q3, res.Q1-res.Lower, 1e-12)
	assert.InDelta(t, 1.5*res.IQR, res.Upper-res.Q3, 1e-12)

	_, err = quality.Outliers(nil)
	assert.ErrorIs(t, err, quality.ErrNotComputable)
}

func TestOutliers_BoundaryIsNotOutlier(t *testing.T) {
	// Q1=3 Q3=7: верхняя граница ровно 13
	res, err := quality.Outliers([]float64{1, 2, 3, 4, 5, 6, 7, 8, 13})
	require.NoError(t, err)
	assert.Equal(t, 13.0, res.Upper)
	assert.Zero(t, res.Count)
}

func TestColumnOutliers_IgnoresInfinities(t *testing.T) {
	res, err := quality.ColumnOutliers(tbl([]string{"v"}, []string{"1"}, []string{"2"}, []string{"inf"}, []string{"inf"}), "v")
	require.NoError(t, err)
	assert.Equal(t, 1.25, res.Q1)
	assert.Equal(t, 1.75, res.Q3)
	assert.False(t, math.IsNaN(res.IQR))
	assert.Zero(t, res.Count)
}

func TestDefaultOutlierColumn(t *testing.T) {
	col, ok := quality.DefaultOutlierColumn(datasettest.Courses())
	require.True(t, ok)
	assert.Equal(t, "class_duration_days", col)

	col, ok = quality.DefaultOutlierColumn(datasettest.Clean())
	require.True(t, ok)
	assert.Equal(t, "a", col)

	_, ok = quality.DefaultOutlierColumn(tbl([]string{"s"}, []string{"x"}))
	assert.False(t, ok)
}
