// Package quality считает показатели качества данных: completeness,
// consistency, timeliness, uniqueness, выбросы по IQR и составной Acc-DQ.
//
// Каждое измерение считается независимо. Если для метрики нет нужных
// колонок, она помечается как не вычислимая, остальные считаются дальше.
package quality

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotComputable: метрику нельзя посчитать на этой таблице.
var ErrNotComputable = errors.New("metric not computable")

func notComputable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotComputable, fmt.Sprintf(format, args...))
}

// Status: общее для всех измерений: посчитано ли значение и почему нет.
type Status struct {
	Computable bool
	Reason     string
	// Reference: значение взято из справочной константы, а не из данных.
	Reference bool
}

func computed() Status { return Status{Computable: true} }

func failed(err error) Status { return Status{Reason: err.Error()} }

// ratio: a/b с защитой от деления на ноль: пустое множество даёт empty.
func ratio(a, b int, empty float64) float64 {
	if b == 0 {
		return empty
	}
	return float64(a) / float64(b)
}

// clamp01 обрезает до [0,1]; NaN даёт 0.
func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
