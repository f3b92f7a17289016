package quality_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/quality"
	"moocdash/internal/table"
)

func TestTimeliness(t *testing.T) {
	data := tbl([]string{"action_time_P1", "cutoff_P1", "action_time_P2", "cutoff_P2"},
		[]string{"2020-01-01 10:00:00", "2020-01-02 00:00:00", "2020-01-05", "2020-01-02"},
		[]string{"2020-01-03 10:00:00", "2020-01-02 00:00:00", "2020-01-01", "2020-01-02"},
		[]string{"", "2020-01-02 00:00:00", "2020-01-02", "2020-01-02"},
		[]string{"2020-01-02 00:00:00", "2020-01-02 00:00:00", "", "2020-01-02"},
	)
	res := quality.Timeliness(data, quality.DefaultTimelinessOptions())
	require.True(t, res.Computable)
	assert.False(t, res.Reference)
	require.Len(t, res.Phases, 2)
	assert.InDelta(t, 0.5, res.Phases[0].PassRate, 1e-9)
	assert.InDelta(t, 0.5, res.Phases[1].PassRate, 1e-9)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
	assert.Contains(t, res.Observation, "same pass rate")
}

func TestTimeliness_Reference(t *testing.T) {
	res := quality.Timeliness(datasettest.Clean(), quality.DefaultTimelinessOptions())
	require.True(t, res.Computable)
	assert.True(t, res.Reference)
	assert.Equal(t, quality.DefaultTimelinessReference, res.Score)

	opts := quality.DefaultTimelinessOptions()
	opts.Reference = nil
	res = quality.Timeliness(datasettest.Clean(), opts)
	assert.False(t, res.Computable)
	assert.NotEmpty(t, res.Reason)
}

func TestBuild_CleanTable(t *testing.T) {
	rep := quality.Build(datasettest.Clean(), quality.DefaultOptions())

	assert.Equal(t, 10, rep.Overview.Rows)
	assert.Equal(t, 3, rep.Overview.NullCells)
	assert.InDelta(t, 0.85, rep.Completeness.Score, 1e-9)
	assert.True(t, rep.Consistency.Computable)
	assert.True(t, rep.Timeliness.Reference)
	assert.Equal(t, 1.0, rep.Uniqueness.Row)
	assert.False(t, rep.Uniqueness.KeyStatus.Computable)
	assert.True(t, rep.Outliers.Computable)
	assert.Equal(t, "a", rep.Outliers.Column)

	assert.Equal(t, quality.FromDefaults, rep.AccDQ.Origin)
	assert.NotEmpty(t, rep.AccDQ.Note)
	assert.True(t, rep.AccDQ.Warning)
}

func TestBuild_Predictions(t *testing.T) {
	rep := quality.Build(datasettest.Enrollments(), quality.DefaultOptions())

	require.True(t, rep.Uniqueness.KeyStatus.Computable)
	assert.Equal(t, 1.0, rep.Uniqueness.Key)
	assert.Equal(t, quality.FromPredictions, rep.AccDQ.Origin)
	assert.Greater(t, rep.AccDQ.SPerf, 0.0)
	assert.Equal(t, 1.0, rep.AccDQ.San.NonNull)
}

func TestBuild_FormInputsWin(t *testing.T) {
	p, s := allOnes()
	opts := quality.DefaultOptions()
	opts.Perf, opts.San = &p, &s

	rep := quality.Build(datasettest.Enrollments(), opts)
	assert.Equal(t, quality.FromInputs, rep.AccDQ.Origin)
	assert.InDelta(t, 100, rep.AccDQ.Score, 1e-9)
}

func TestBuild_UnknownOutlierColumn(t *testing.T) {
	opts := quality.DefaultOptions()
	opts.OutlierColumn = "nope"
	rep := quality.Build(datasettest.Clean(), opts)

	assert.False(t, rep.Outliers.Computable)
	// остальные измерения не затронуты
	assert.InDelta(t, 0.85, rep.Completeness.Score, 1e-9)
	assert.True(t, rep.Consistency.Computable)
}

func TestSummarize(t *testing.T) {
	s := quality.Summarize(quality.Build(datasettest.Clean(), quality.DefaultOptions()))

	assert.Equal(t, "clean", s.Dataset)
	assert.Equal(t, 3, s.NullCells)
	require.Len(t, s.Dimensions, 7)

	byName := map[string]quality.Dimension{}
	for _, d := range s.Dimensions {
		byName[d.Name] = d
	}
	require.NotNil(t, byName["completeness"].Score)
	assert.InDelta(t, 0.85, *byName["completeness"].Score, 1e-9)
	assert.True(t, byName["timeliness"].Reference)
	assert.Nil(t, byName["uniqueness_key"].Score)
	assert.NotEmpty(t, byName["uniqueness_key"].Reason)
	assert.Contains(t, byName["acc_dq"].Note, "below warning threshold")

	_, err := json.Marshal(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))
	assert.Contains(t, buf.String(), "dataset clean: 10 rows, 2 columns, 3 null cells")
	assert.Contains(t, buf.String(), "not computable")
}

func TestSummarize_EmptyTableEncodes(t *testing.T) {
	s := quality.Summarize(quality.Build(table.Empty("empty", "a"), quality.DefaultOptions()))
	_, err := json.Marshal(s)
	assert.NoError(t, err)
}
