package quality

import (
	"math"
	"sort"

	"moocdash/internal/table"
)

// IQRFactor: множитель межквартильного размаха для границ.
const IQRFactor = 1.5

// Quantile: квантиль q отсортированной выборки с линейной интерполяцией
// между соседними порядковыми статистиками.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}
	pos := clamp01(q) * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

type OutlierResult struct {
	Column string
	Q1     float64
	Q3     float64
	IQR    float64
	Lower  float64
	Upper  float64
	// Flags[i]: значение i вне границ; порядок как у входа.
	Flags []bool
	Count int
}

// Outliers размечает значения строго меньше Lower или строго больше Upper.
func Outliers(values []float64) (OutlierResult, error) {
	if len(values) == 0 {
		return OutlierResult{}, notComputable("no numeric values")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	res := OutlierResult{Q1: Quantile(sorted, 0.25), Q3: Quantile(sorted, 0.75)}
	res.IQR = res.Q3 - res.Q1
	res.Lower = res.Q1 - IQRFactor*res.IQR
	res.Upper = res.Q3 + IQRFactor*res.IQR
	res.Flags = make([]bool, len(values))
	for i, v := range values {
		if v < res.Lower || v > res.Upper {
			res.Flags[i] = true
			res.Count++
		}
	}
	return res, nil
}

// ColumnOutliers: Outliers по числовой колонке таблицы.
func ColumnOutliers(t *table.Table, col string) (OutlierResult, error) {
	if !t.Has(col) {
		return OutlierResult{}, notComputable("missing column %s", col)
	}
	res, err := Outliers(t.Floats(col))
	res.Column = col
	return res, err
}

// DefaultOutlierColumn: class_duration_days, если колонка числовая, иначе первая числовая.
func DefaultOutlierColumn(t *table.Table) (string, bool) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return "", false
	}
	for _, c := range numeric {
		if c == "class_duration_days" {
			return c, true
		}
	}
	return numeric[0], true
}
