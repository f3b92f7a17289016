package quality

import (
	"fmt"
	"math"

	"moocdash/internal/dataset"
	"moocdash/internal/table"
)

// DefaultTimelinessReference: значение исходного отчёта для таблиц без
// колонок action_time/cutoff.
const DefaultTimelinessReference = 0.2823

type TimelinessOptions struct {
	// ActionPattern и CutoffPattern: fmt-шаблоны имени колонки с номером фазы.
	ActionPattern string
	CutoffPattern string
	// Reference используется, если в таблице нет ни одной пары колонок; nil: не вычислимо.
	Reference *float64
}

func DefaultTimelinessOptions() TimelinessOptions {
	ref := DefaultTimelinessReference
	return TimelinessOptions{
		ActionPattern: "action_time_P%d",
		CutoffPattern: "cutoff_P%d",
		Reference:     &ref,
	}
}

type PhaseRate struct {
	Phase    int
	PassRate float64
	Checked  int
}

type TimelinessResult struct {
	Phases []PhaseRate
	Score  float64
	// Observation: замечание о подозрительных данных, например одинаковая доля во всех фазах.
	Observation string
	Status
}

// Timeliness: доля строк с action_time_Pn <= cutoff_Pn, усреднённая по фазам,
// для которых есть обе колонки. Null не проходит.
func Timeliness(t *table.Table, opts TimelinessOptions) TimelinessResult {
	var res TimelinessResult
	var rates []float64
	for p := 1; p <= dataset.Phases; p++ {
		action := fmt.Sprintf(opts.ActionPattern, p)
		cutoff := fmt.Sprintf(opts.CutoffPattern, p)
		if !t.Has(action) || !t.Has(cutoff) {
			continue
		}
		pass := 0
		for row := range t.Rows {
			a, b := t.Value(row, action), t.Value(row, cutoff)
			if notAfter(a, b) {
				pass++
			}
		}
		rate := ratio(pass, t.Len(), 1)
		res.Phases = append(res.Phases, PhaseRate{Phase: p, PassRate: rate, Checked: t.Len()})
		rates = append(rates, rate)
	}

	if len(rates) == 0 {
		if opts.Reference == nil {
			res.Status = failed(notComputable("no action_time/cutoff columns"))
			return res
		}
		res.Score = *opts.Reference
		res.Status = Status{Computable: true, Reference: true}
		res.Observation = "no action_time/cutoff columns in this table; showing the reference value"
		return res
	}

	res.Score = mean(rates)
	res.Status = computed()
	if len(rates) > 1 && allEqual(rates) {
		res.Observation = fmt.Sprintf("all %d phases report the same pass rate %.4f; the phase columns may be duplicated", len(rates), rates[0])
	}
	return res
}

func notAfter(a, b table.Cell) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	if ta, ok := a.Time(); ok {
		if tb, ok := b.Time(); ok {
			return !ta.After(tb)
		}
	}
	fa, okA := a.Float()
	fb, okB := b.Float()
	return okA && okB && fa <= fb
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if math.Abs(x-xs[0]) > 1e-12 {
			return false
		}
	}
	return true
}
