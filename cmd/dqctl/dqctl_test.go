package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moocdash/internal/config"
	"moocdash/internal/dataset"
	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/dbstore"
	"moocdash/internal/logger"
	"moocdash/internal/quality"
	"moocdash/internal/table"
)

func init() {
	log = logger.Nop()
}

func writeCSV(t *testing.T, dir, file string, tbl *table.Table) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, file))
	require.NoError(t, err)
	require.NoError(t, table.WriteCSV(f, tbl))
	require.NoError(t, f.Close())
}

func TestRunReportJSON(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "clean_data.csv", datasettest.Clean())

	var out bytes.Buffer
	err := runReport(context.Background(), &out, dataset.NewCSVSource(dir), dataset.Clean, "", "", "json")
	require.NoError(t, err)

	var sum quality.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, 10, sum.Rows)
	require.NotEmpty(t, sum.Dimensions)
	assert.Equal(t, "completeness", sum.Dimensions[0].Name)
	require.NotNil(t, sum.Dimensions[0].Score)
	assert.InDelta(t, 0.85, *sum.Dimensions[0].Score, 1e-9)
}

func TestRunReportText(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "clean_data.csv", datasettest.Clean())

	var out bytes.Buffer
	require.NoError(t, runReport(context.Background(), &out, dataset.NewCSVSource(dir), dataset.Clean, "", "b", "text"))
	assert.Contains(t, out.String(), "dataset clean: 10 rows")
	assert.Contains(t, out.String(), "column b")
}

func TestRunReportErrors(t *testing.T) {
	src := dataset.NewCSVSource(t.TempDir())
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorIs(t, runReport(ctx, &out, src, "nope", "", "", "text"), dataset.ErrUnknownDataset)
	assert.ErrorIs(t, runReport(ctx, &out, src, dataset.Clean, "", "", "text"), dataset.ErrNotFound)
	assert.Error(t, runReport(ctx, &out, src, dataset.Clean, "", "", "xml"))
	assert.Error(t, runReport(ctx, &out, src, dataset.Clean, filepath.Join(t.TempDir(), "missing.yaml"), "", "text"))
}

func TestRunImport(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "course_info_final_P5.csv", datasettest.Courses())
	writeCSV(t, dir, "train_validate.csv", datasettest.Train())

	db, err := dbstore.Open(config.DatabaseConfig{Type: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer dbstore.Close(db)

	var out bytes.Buffer
	require.NoError(t, runImport(context.Background(), &out, dbstore.NewImporter(db, log), dir))
	assert.Contains(t, out.String(), "course_info_final_P5.csv")
	assert.Contains(t, out.String(), "train_validate.csv")

	// тот же отчёт из SQL
	out.Reset()
	require.NoError(t, runReport(context.Background(), &out, dbstore.NewSource(db), dataset.Train, "", "", "text"))
	assert.Contains(t, out.String(), "dataset train: 12 rows")

	assert.Error(t, runImport(context.Background(), &out, dbstore.NewImporter(db, log), t.TempDir()))
}
