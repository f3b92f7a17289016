package quality

import (
	"sort"

	"moocdash/internal/table"
)

// Completeness: 1 − доля null-ячеек. Таблица без ячеек считается полной.
func Completeness(t *table.Table) float64 {
	cells := t.Len() * t.Width()
	return 1 - ratio(t.NullCells(), cells, 0)
}

type ColumnNulls struct {
	Column       string
	NullCount    int
	NullShare    float64
	Completeness float64
}

// ColumnCompleteness: по колонкам в порядке таблицы.
func ColumnCompleteness(t *table.Table) []ColumnNulls {
	out := make([]ColumnNulls, 0, t.Width())
	for _, c := range t.Columns {
		n := t.NullCount(c)
		share := ratio(n, t.Len(), 0)
		out = append(out, ColumnNulls{Column: c, NullCount: n, NullShare: share, Completeness: 1 - share})
	}
	return out
}

// TopNullColumns: n колонок с наибольшей долей пропусков.
func TopNullColumns(t *table.Table, n int) []ColumnNulls {
	cols := ColumnCompleteness(t)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].NullShare > cols[j].NullShare })
	if n < len(cols) {
		cols = cols[:n]
	}
	return cols
}

// RowCompleteness: доля заполненных ячеек в каждой строке.
func RowCompleteness(t *table.Table) []float64 {
	out := make([]float64, t.Len())
	w := t.Width()
	for r, row := range t.Rows {
		filled := 0
		for i := 0; i < w && i < len(row); i++ {
			if row[i].Valid {
				filled++
			}
		}
		out[r] = ratio(filled, w, 1)
	}
	return out
}

// Histogram: распределение значений из [0,1] по bins равным корзинам;
// 1.0 попадает в последнюю.
type Histogram struct {
	Edges  []float64
	Counts []int
}

func NewHistogram(values []float64, bins int) Histogram {
	if bins <= 0 {
		bins = 1
	}
	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = float64(i) / float64(bins)
	}
	for _, v := range values {
		b := int(clamp01(v) * float64(bins))
		if b == bins {
			b--
		}
		h.Counts[b]++
	}
	return h
}

// RowHistogramBins: как в исходном отчёте.
const RowHistogramBins = 50
