package quality_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moocdash/internal/dataset"
	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/quality"
)

func ptr(f float64) *float64 { return &f }

func TestConsistency_DefaultRules(t *testing.T) {
	res := quality.Consistency(datasettest.Clean(), quality.DefaultRules(), nil)
	require.True(t, res.Computable)
	require.Len(t, res.Rules, 5)
	assert.True(t, res.Reference)

	assert.Equal(t, 0.47, res.Rules[3].PassRate)
	assert.True(t, res.Rules[3].Reference)
	assert.InDelta(t, 0.7, res.Rules[4].PassRate, 1e-9)
	assert.False(t, res.Rules[4].Reference)
	assert.InDelta(t, (1+1+1+0.47+0.7)/5, res.Mean, 1e-9)
}

func TestRule_Logical(t *testing.T) {
	data := tbl([]string{"class_start", "class_end"},
		[]string{"2020-01-01", "2020-02-01"},
		[]string{"2020-03-01", "2020-02-01"},
		[]string{"2020-03-01", ""},
		[]string{"5", "7"},
	)
	r := quality.Rule{Name: "dates", Kind: quality.KindLogical, Before: "class_start", After: "class_end"}
	res := r.Evaluate(data, nil)
	require.True(t, res.Computable)
	assert.Equal(t, 4, res.Checked)
	assert.InDelta(t, 0.5, res.PassRate, 1e-9)
}

func TestRule_RangeNullPasses(t *testing.T) {
	data := tbl([]string{"rate"}, []string{"0.5"}, []string{""}, []string{"1.5"}, []string{"abc"})
	r := quality.Rule{Name: "rate", Kind: quality.KindRange, Column: "rate", Min: ptr(0), Max: ptr(1)}
	assert.InDelta(t, 0.5, r.Evaluate(data, nil).PassRate, 1e-9)
}

func TestRule_DataTypeNullPasses(t *testing.T) {
	data := tbl([]string{"n", "d"}, []string{"1", "2020-01-01"}, []string{"x", ""}, []string{"", "soon"})
	r := quality.Rule{Name: "types", Kind: quality.KindDataType, Types: map[string]string{"n": "int64", "d": "datetime", "gone": "bool"}}
	res := r.Evaluate(data, nil)
	require.True(t, res.Computable)
	assert.Equal(t, 6, res.Checked)
	assert.InDelta(t, 4.0/6, res.PassRate, 1e-9)
}

func TestRule_KeyUniqueNullFails(t *testing.T) {
	data := tbl([]string{"user_id", "course_id"},
		[]string{"u1", "c1"}, []string{"u1", "c1"}, []string{"u2", ""}, []string{"u3", "c1"})
	r := quality.Rule{Name: "key", Kind: quality.KindKeyUnique, Columns: []string{"user_id", "course_id"}}
	assert.InDelta(t, 0.5, r.Evaluate(data, nil).PassRate, 1e-9)
}

func TestRule_ForeignKey(t *testing.T) {
	users := tbl([]string{"course_id"}, []string{datasettest.CourseA}, []string{"C_ghost"}, []string{""}, []string{datasettest.CourseB})
	r := quality.Rule{Name: "fk", Kind: quality.KindForeignKey, Column: "course_id", Ref: "courses.course_id"}

	res := r.Evaluate(users, quality.Refs{dataset.Courses: datasettest.Courses()})
	require.True(t, res.Computable)
	assert.InDelta(t, 0.5, res.PassRate, 1e-9)

	res = r.Evaluate(users, nil)
	assert.False(t, res.Computable)
	assert.Contains(t, res.Reason, "courses")
}

func TestConsistency_SkipsRulesWithMissingColumns(t *testing.T) {
	rules := []quality.Rule{
		{Name: "dates", Kind: quality.KindLogical, Before: "class_start", After: "class_end"},
		{Name: "all", Kind: quality.KindNonNull},
	}
	res := quality.Consistency(datasettest.Clean(), rules, nil)
	require.True(t, res.Computable)
	assert.False(t, res.Rules[0].Computable)
	assert.InDelta(t, 0.7, res.Mean, 1e-9)
	assert.False(t, res.Reference)

	none := quality.Consistency(datasettest.Clean(), rules[:1], nil)
	assert.False(t, none.Computable)
}

func TestParseRules(t *testing.T) {
	rules, err := quality.ParseRules([]byte(`
rules:
  - name: Course dates
    kind: logical
    before: class_start
    after: class_end
  - name: Weights
    kind: range
    column: exam
    min: 0
    max: 1
  - name: Logical Constraints
    kind: fixed
    value: 0.47
`))
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, quality.KindRange, rules[1].Kind)
	require.NotNil(t, rules[1].Max)
	assert.Equal(t, 1.0, *rules[1].Max)

	res := quality.Consistency(datasettest.Courses(), rules, nil)
	require.True(t, res.Computable)
	// у курса C нет даты окончания
	assert.InDelta(t, 2.0/3, res.Rules[0].PassRate, 1e-9)
}

func TestParseRules_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"no rules":       `rules: []`,
		"unknown kind":   "rules:\n  - name: x\n    kind: magic\n",
		"unknown field":  "rules:\n  - name: x\n    kind: non_null\n    colour: red\n",
		"fixed > 1":      "rules:\n  - name: x\n    kind: fixed\n    value: 2\n",
		"range no ends":  "rules:\n  - name: x\n    kind: range\n    column: a\n",
		"no phase verb":  "timeliness:\n  action: action_time\n",
		"two verbs":      "timeliness:\n  cutoff: cutoff_%d_%s\n",
		"reference > 1":  "timeliness:\n  reference: 1.5\n",
		"timeliness key": "timeliness:\n  deadline: x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := quality.ParseRules([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	opts, err := quality.LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, quality.DefaultOptions(), opts)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	data, err := quality.MarshalRules(quality.DefaultRules())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	opts, err = quality.LoadOptions(path)
	require.NoError(t, err)
	assert.Len(t, opts.Rules, 5)
	assert.Equal(t, quality.DefaultTimelinessOptions(), opts.Timeliness)

	_, err = quality.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOptions_Timeliness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeliness:
  action: done_%d
  cutoff: due_%d
  reference: 0.5
`), 0o644))

	opts, err := quality.LoadOptions(path)
	require.NoError(t, err)
	// правил в файле нет: остаются встроенные
	assert.Equal(t, quality.DefaultRules(), opts.Rules)
	assert.Equal(t, "done_%d", opts.Timeliness.ActionPattern)
	assert.Equal(t, "due_%d", opts.Timeliness.CutoffPattern)
	require.NotNil(t, opts.Timeliness.Reference)
	assert.Equal(t, 0.5, *opts.Timeliness.Reference)

	data := tbl([]string{"done_1", "due_1"},
		[]string{"2020-01-01", "2020-01-02"},
		[]string{"2020-01-03", "2020-01-02"},
	)
	res := quality.Timeliness(data, opts.Timeliness)
	require.True(t, res.Computable)
	assert.False(t, res.Reference)
	assert.InDelta(t, 0.5, res.Score, 1e-9)
}
