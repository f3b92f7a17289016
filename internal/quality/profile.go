package quality

import (
	"sort"

	"moocdash/internal/table"
)

type ColumnProfile struct {
	Column    string
	Type      string
	NullCount int
	NullPct   float64
	Unique    int
}

// Profile: тип, пропуски и мощность каждой колонки.
func Profile(t *table.Table) []ColumnProfile {
	out := make([]ColumnProfile, 0, t.Width())
	for _, c := range t.Columns {
		n := t.NullCount(c)
		out = append(out, ColumnProfile{
			Column:    c,
			Type:      t.InferType(c),
			NullCount: n,
			NullPct:   100 * ratio(n, t.Len(), 0),
			Unique:    t.UniqueCount(c),
		})
	}
	return out
}

type TypeCount struct {
	Type  string
	Count int
}

// TypeDistribution: число колонок каждого типа, по убыванию.
func TypeDistribution(profile []ColumnProfile) []TypeCount {
	counts := map[string]int{}
	for _, p := range profile {
		counts[p.Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Overview: KPI вкладки обзора.
type Overview struct {
	Rows          int
	Columns       int
	DuplicateRows int
	NullCells     int
}

func NewOverview(t *table.Table) Overview {
	return Overview{
		Rows:          t.Len(),
		Columns:       t.Width(),
		DuplicateRows: t.DuplicateRows(),
		NullCells:     t.NullCells(),
	}
}
