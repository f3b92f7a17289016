package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moocdash/internal/dataset"
	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/logger"
	"moocdash/internal/table"
)

func TestStore_CachesWithinTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := datasettest.Demo()
	store := dataset.NewStore(src, time.Hour, logger.Nop(), dataset.WithClock(func() time.Time { return now }))

	ctx := context.Background()
	_, err := store.Get(ctx, dataset.Courses)
	require.NoError(t, err)
	_, err = store.Get(ctx, dataset.Courses)
	require.NoError(t, err)
	assert.Equal(t, 1, src.LoadCount(dataset.Courses))

	now = now.Add(61 * time.Minute)
	_, err = store.Get(ctx, dataset.Courses)
	require.NoError(t, err)
	assert.Equal(t, 2, src.LoadCount(dataset.Courses))

	store.Flush()
	assert.Empty(t, store.Cached())
	_, err = store.Get(ctx, dataset.Courses)
	require.NoError(t, err)
	assert.Equal(t, 3, src.LoadCount(dataset.Courses))
}

func TestStore_NotFoundIsEmptyNotFabricated(t *testing.T) {
	var results []string
	src := datasettest.NewSource(map[string]*table.Table{})
	store := dataset.NewStore(src, time.Hour, logger.Nop(),
		dataset.WithObserver(func(name, result string) { results = append(results, name+":"+result) }))

	d, err := store.Get(context.Background(), dataset.Users)
	require.NoError(t, err)
	assert.True(t, d.NotFound)
	assert.False(t, d.OK())
	assert.Equal(t, 0, d.Table.Len())
	assert.Equal(t, []string{"user_id", "course_id"}, d.Table.Columns)
	assert.Equal(t, []string{"users:not_found"}, results)
}

func TestStore_UnknownDataset(t *testing.T) {
	store, _ := datasettest.NewStore()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, dataset.ErrUnknownDataset)
}

func TestStore_ReportsMissingColumns(t *testing.T) {
	src := datasettest.NewSource(map[string]*table.Table{
		dataset.Courses: table.New(dataset.Courses, []string{"course_id"}, nil),
	})
	store := dataset.NewStore(src, time.Hour, logger.Nop())

	d, err := store.Get(context.Background(), dataset.Courses)
	require.NoError(t, err)
	assert.Equal(t, []string{"course_name"}, d.Missing)
	assert.False(t, d.NotFound)
}

func TestStore_SortsCoursesByUserCount(t *testing.T) {
	store, _ := datasettest.NewStore()
	d, err := store.Get(context.Background(), dataset.Courses)
	require.NoError(t, err)

	courses := dataset.CoursesFrom(d.Table)
	require.Len(t, courses, 3)
	assert.Equal(t, datasettest.CourseA, courses[0].ID)
	assert.Equal(t, datasettest.CourseC, courses[2].ID)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "course_info_final_P5.csv"),
		[]byte("course_id,course_name,user_count\nC1,Intro,3\nC2,Advanced,10\n"), 0o644))

	store := dataset.NewStore(dataset.NewCSVSource(dir), time.Hour, logger.Nop())
	ctx := context.Background()

	d, err := store.Get(ctx, dataset.Courses)
	require.NoError(t, err)
	require.True(t, d.OK())
	assert.Equal(t, "C2", d.Table.Value(0, "course_id").S)

	missing, err := store.Get(ctx, dataset.Prediction(3))
	require.NoError(t, err)
	assert.True(t, missing.NotFound)
}

func TestCSVSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dataset.NewCSVSource(t.TempDir()).Load(ctx, dataset.Spec{Name: "x", File: "x.csv"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNames(t *testing.T) {
	names := dataset.Names()
	assert.Len(t, names, 9)
	for _, n := range names {
		_, ok := dataset.Lookup(n)
		assert.True(t, ok, n)
	}
}

func TestCSVSource_Replace(t *testing.T) {
	dir := t.TempDir()
	src := dataset.NewCSVSource(dir)
	spec, _ := dataset.Lookup(dataset.Clean)
	ctx := context.Background()

	require.NoError(t, src.Replace(ctx, spec, datasettest.Clean()))
	got, err := src.Load(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Len())
	assert.Equal(t, 3, got.NullCount("a"))

	small := table.New(dataset.Clean, []string{"x"}, []table.Row{{table.Str("1")}})
	require.NoError(t, src.Replace(ctx, spec, small))
	got, err = src.Load(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Columns)

	// временных файлов не остаётся
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
