package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `user_id,course_id,score,enroll_time
U1,C1,10,2020-01-02 10:00:00
U2,C1,,2020-01-03 10:00:00
U1,C1,10,2020-01-02 10:00:00
U3,C2,NaN,
U4,C2,7.5,N/A
`

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := ReadCSV("sample", strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestReadCSV_NullTokens(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, 4, tbl.Width())
	assert.Equal(t, 2, tbl.NullCount("score"))
	assert.Equal(t, 2, tbl.NullCount("enroll_time"))
	assert.Equal(t, 4, tbl.NullCells())
	assert.False(t, tbl.Value(1, "score").Valid)
	assert.Equal(t, "U4", tbl.Value(4, "user_id").S)
}

func TestReadCSV_RaggedAndEmpty(t *testing.T) {
	tbl := mustRead(t, "a,b,c\n1,2\n1,2,3,4\n")
	require.Equal(t, 2, tbl.Len())
	assert.False(t, tbl.Value(0, "c").Valid)
	assert.Equal(t, "3", tbl.Value(1, "c").S)

	empty := mustRead(t, "")
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Width())
}

func TestDuplicates(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, 1, tbl.DuplicateRows())

	n, err := tbl.DuplicateKeys("user_id", "course_id")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = tbl.DuplicateKeys("user_id", "nope")
	var mc *MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []string{"nope"}, mc.Columns)
}

func TestDuplicates_NullsCompareEqual(t *testing.T) {
	tbl := mustRead(t, "a,b\n1,\n1,\n1,NA\n")
	assert.Equal(t, 2, tbl.DuplicateRows())
}

func TestSearchAndFilter(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, 3, tbl.WhereEq("course_id", "C1").Len())
	assert.Equal(t, 0, tbl.WhereEq("missing", "C1").Len())
	assert.Equal(t, 2, tbl.Search("c2", "course_id").Len())
	assert.Equal(t, 5, tbl.Search("  ", "course_id").Len())
	assert.Equal(t, 2, tbl.Search("u1", "user_id", "course_id").Len())
}

func TestSliceClamps(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, 2, tbl.Slice(3, 100).Len())
	assert.Equal(t, 0, tbl.Slice(10, 20).Len())
	assert.Equal(t, 3, tbl.Head(3).Len())
}

func TestSortBy_NumericNullsLast(t *testing.T) {
	tbl := mustRead(t, "id,n\na,10\nb,\nc,9\nd,100\n")

	desc := tbl.SortBy("n", true)
	got := []string{}
	for i := 0; i < desc.Len(); i++ {
		got = append(got, desc.Value(i, "id").S)
	}
	assert.Equal(t, []string{"d", "a", "c", "b"}, got)
	// исходная таблица не меняется
	assert.Equal(t, "a", tbl.Value(0, "id").S)
}

func TestInferType(t *testing.T) {
	tbl := mustRead(t, "i,f,in,s,b,allnull\n1,1.5,1,x,True,\n2,2,,y,False,\n")

	assert.Equal(t, TypeInt, tbl.InferType("i"))
	assert.Equal(t, TypeFloat, tbl.InferType("f"))
	assert.Equal(t, TypeFloat, tbl.InferType("in"))
	assert.Equal(t, TypeObject, tbl.InferType("s"))
	assert.Equal(t, TypeBool, tbl.InferType("b"))
	assert.Equal(t, TypeFloat, tbl.InferType("allnull"))
	assert.Equal(t, []string{"i", "f", "in", "allnull"}, tbl.NumericColumns())
}

func TestFloatsAndSum(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	assert.Equal(t, []float64{10, 10, 7.5}, tbl.Floats("score"))
	assert.InDelta(t, 27.5, tbl.Sum("score"), 1e-9)
	assert.Nil(t, tbl.Floats("nope"))
}

func TestFloats_SkipsInfinities(t *testing.T) {
	tbl := mustRead(t, "v\n1\n2\ninf\n-Infinity\n+Inf\n")

	assert.Equal(t, []float64{1, 2}, tbl.Floats("v"))
	_, ok := Str("inf").Float()
	assert.False(t, ok)
}

func TestUniqueCount(t *testing.T) {
	tbl := mustRead(t, sampleCSV)
	assert.Equal(t, 4, tbl.UniqueCount("user_id"))
	assert.Equal(t, 2, tbl.UniqueCount("score"))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := mustRead(t, sampleCSV)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	again := mustRead(t, buf.String())
	assert.Equal(t, tbl.Columns, again.Columns)
	assert.Equal(t, tbl.NullCells(), again.NullCells())
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2020-01-02 10:00:00", "2020-01-02", "01/02/2020", "2020-01-02T10:00:00Z"} {
		ts, ok := ParseTime(s)
		require.True(t, ok, s)
		assert.Equal(t, 2020, ts.Year())
	}
	_, ok := ParseTime("yesterday")
	assert.False(t, ok)
}
