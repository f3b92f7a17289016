package quality

import (
	"fmt"

	"moocdash/internal/table"
)

type Options struct {
	Rules      []Rule
	Refs       Refs
	Key        []string
	Timeliness TimelinessOptions
	// OutlierColumn: пусто: DefaultOutlierColumn.
	OutlierColumn string

	// Perf и San: значения из формы; nil: вывести из label/predict,
	// а если колонок нет: взять значения по умолчанию.
	Perf          *Performance
	San           *Sanity
	LabelColumn   string
	PredictColumn string
}

func DefaultOptions() Options {
	return Options{
		Rules:         DefaultRules(),
		Key:           DefaultKey,
		Timeliness:    DefaultTimelinessOptions(),
		LabelColumn:   "label",
		PredictColumn: "predict",
	}
}

type CompletenessReport struct {
	Score   float64
	Columns []ColumnNulls
	TopNull []ColumnNulls
	Rows    Histogram
}

type OutlierReport struct {
	OutlierResult
	NumericColumns []string
	Status
}

// Origin значений Acc-DQ.
const (
	FromInputs      = "inputs"
	FromPredictions = "predictions"
	FromDefaults    = "defaults"
)

type AccDQReport struct {
	AccDQResult
	Origin string
	Note   string
}

type Report struct {
	Dataset      string
	Overview     Overview
	Profile      []ColumnProfile
	Types        []TypeCount
	Completeness CompletenessReport
	Consistency  ConsistencyResult
	Timeliness   TimelinessResult
	Uniqueness   UniquenessResult
	Outliers     OutlierReport
	AccDQ        AccDQReport
}

// Build считает все измерения. Паника в одном из них превращается в
// «не вычислимо» для него одного.
func Build(t *table.Table, opts Options) *Report {
	rep := &Report{Dataset: t.Name}

	rep.Overview = NewOverview(t)
	rep.Profile = Profile(t)
	rep.Types = TypeDistribution(rep.Profile)

	rep.Completeness = CompletenessReport{
		Score:   Completeness(t),
		Columns: ColumnCompleteness(t),
		TopNull: TopNullColumns(t, 10),
		Rows:    NewHistogram(RowCompleteness(t), RowHistogramBins),
	}

	safely(&rep.Consistency.Status, func() {
		rep.Consistency = Consistency(t, opts.Rules, opts.Refs)
	})
	safely(&rep.Timeliness.Status, func() {
		rep.Timeliness = Timeliness(t, opts.Timeliness)
	})
	safely(&rep.Uniqueness.KeyStatus, func() {
		rep.Uniqueness = Uniqueness(t, opts.Key...)
	})
	safely(&rep.Outliers.Status, func() {
		rep.Outliers = outlierReport(t, opts.OutlierColumn)
	})
	rep.AccDQ = accDQReport(t, opts)
	return rep
}

func safely(st *Status, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			*st = failed(notComputable("%v", r))
		}
	}()
	fn()
}

func outlierReport(t *table.Table, col string) OutlierReport {
	rep := OutlierReport{NumericColumns: t.NumericColumns()}
	if col == "" {
		c, ok := DefaultOutlierColumn(t)
		if !ok {
			rep.Status = failed(notComputable("no numeric columns"))
			return rep
		}
		col = c
	}
	res, err := ColumnOutliers(t, col)
	rep.OutlierResult = res
	if err != nil {
		rep.Status = failed(err)
		return rep
	}
	rep.Status = computed()
	return rep
}

func accDQReport(t *table.Table, opts Options) AccDQReport {
	perf, san := DefaultPerformance(), DefaultSanity()
	origin := FromDefaults
	var note string

	if opts.Perf == nil || opts.San == nil {
		labels, preds, err := PredictionPairs(t, opts.LabelColumn, opts.PredictColumn)
		if err == nil {
			if p, err := PerformanceFromPredictions(labels, preds); err == nil {
				perf = p
			}
			if s, err := SanityFromPredictions(t, opts.LabelColumn, opts.PredictColumn, DefaultEfficiency, DefaultLeakage); err == nil {
				san = s
			}
			origin = FromPredictions
		} else {
			note = fmt.Sprintf("derived inputs unavailable (%v); using defaults", err)
		}
	}
	if opts.Perf != nil {
		perf = *opts.Perf
		origin = FromInputs
	}
	if opts.San != nil {
		san = *opts.San
		origin = FromInputs
	}
	return AccDQReport{AccDQResult: AccDQ(perf, san), Origin: origin, Note: note}
}
