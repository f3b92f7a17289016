package view

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/quality"
	"moocdash/internal/table"
)

// Имена полей GET-форм отчёта о качестве.
const (
	FieldOutlierColumn = "col"

	FieldF1     = "f1"
	FieldBalAcc = "bal_acc"
	FieldMCC    = "mcc"
	FieldKappa  = "kappa"
	FieldNaN    = "s_nan"
	FieldMaj    = "s_maj"
	FieldEnt    = "s_ent"
	FieldDrift  = "s_drift"
	FieldEff    = "s_eff"
	FieldLeak   = "s_leak"
)

// SampleRows: сколько строк показывать в образце данных.
const SampleRows = 10

// Inputs: значения, введённые в формы отчёта. nil: поле не задано.
type Inputs struct {
	OutlierColumn string
	Perf          *quality.Performance
	San           *quality.Sanity
	// Invalid: поля, значения которых отброшены (не число или вне [0,1]).
	Invalid []string
}

// ParseInputs читает поля форм из query. Если задано хотя бы одно поле
// группы, остальные поля группы берутся по умолчанию.
func ParseInputs(q url.Values) Inputs {
	in := Inputs{OutlierColumn: strings.TrimSpace(q.Get(FieldOutlierColumn))}

	unit := func(name string, dst *float64) bool {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return false
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
			in.Invalid = append(in.Invalid, name)
			return false
		}
		*dst = f
		return true
	}

	perf := quality.DefaultPerformance()
	var setPerf bool
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{FieldF1, &perf.MacroF1},
		{FieldBalAcc, &perf.BalancedAccuracy},
		{FieldMCC, &perf.MCC},
		{FieldKappa, &perf.Kappa},
	} {
		setPerf = unit(f.name, f.dst) || setPerf
	}
	if setPerf {
		in.Perf = &perf
	}

	san := quality.DefaultSanity()
	var setSan bool
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{FieldNaN, &san.NonNull},
		{FieldMaj, &san.Majority},
		{FieldEnt, &san.Entropy},
		{FieldDrift, &san.Drift},
		{FieldEff, &san.Efficiency},
		{FieldLeak, &san.Leakage},
	} {
		setSan = unit(f.name, f.dst) || setSan
	}
	if setSan {
		in.San = &san
	}
	return in
}

// Values: обратное к ParseInputs: только заданные поля.
func (in Inputs) Values() url.Values {
	q := url.Values{}
	if in.OutlierColumn != "" {
		q.Set(FieldOutlierColumn, in.OutlierColumn)
	}
	set := func(name string, v float64) { q.Set(name, strconv.FormatFloat(v, 'f', -1, 64)) }
	if p := in.Perf; p != nil {
		set(FieldF1, p.MacroF1)
		set(FieldBalAcc, p.BalancedAccuracy)
		set(FieldMCC, p.MCC)
		set(FieldKappa, p.Kappa)
	}
	if s := in.San; s != nil {
		set(FieldNaN, s.NonNull)
		set(FieldMaj, s.Majority)
		set(FieldEnt, s.Entropy)
		set(FieldDrift, s.Drift)
		set(FieldEff, s.Efficiency)
		set(FieldLeak, s.Leakage)
	}
	return q
}

func qualityTabs(s nav.State) []Action {
	labels := map[nav.QualityTab]string{
		nav.DQOverview:     "Overview",
		nav.DQCompleteness: "Completeness",
		nav.DQConsistency:  "Consistency",
		nav.DQTimeliness:   "Timeliness & Uniqueness",
		nav.DQAccDQ:        "Acc-DQ Model",
	}
	var out []Action
	for _, t := range nav.QualityTabs() {
		a := act(labels[t], nav.ActQualityTab, string(t))
		a.Active = s.QualityTab == t
		out = append(out, a)
	}
	return out
}

// QualityOptions: параметры отчёта: d.Quality (нулевое значение заменяется
// DefaultOptions), ссылки на справочные наборы и значения форм.
func QualityOptions(d Data) quality.Options {
	opts := d.Quality
	if opts.Rules == nil {
		opts = quality.DefaultOptions()
	}
	refs := quality.Refs{}
	for name, r := range opts.Refs {
		refs[name] = r
	}
	for _, ds := range []*dataset.Dataset{d.Courses, d.Users, d.Train} {
		if ds.OK() {
			if _, ok := refs[ds.Name]; !ok {
				refs[ds.Name] = ds.Table
			}
		}
	}
	opts.Refs = refs
	if d.Inputs.OutlierColumn != "" {
		opts.OutlierColumn = d.Inputs.OutlierColumn
	}
	if d.Inputs.Perf != nil {
		opts.Perf = d.Inputs.Perf
	}
	if d.Inputs.San != nil {
		opts.San = d.Inputs.San
	}
	return opts
}

func qualitySections(s nav.State, d Data) []Section {
	head := Section{
		Title:    "Data quality assessment",
		Subtitle: "Completeness, Consistency, Timeliness, Uniqueness and Acc-DQ.",
		Width:    12,
		Alerts:   datasetAlerts(d.Clean),
	}
	for _, name := range d.Inputs.Invalid {
		head.Alerts = append(head.Alerts, alert("warning", "Ignored %s: expected a number in [0, 1].", name))
	}
	t := table.Empty(dataset.Clean)
	if d.Clean != nil {
		t = d.Clean.Table
	}
	rep := quality.Build(t, QualityOptions(d))

	out := []Section{head}
	switch s.QualityTab {
	case nav.DQCompleteness:
		out = append(out, completenessSections(rep)...)
	case nav.DQConsistency:
		out = append(out, consistencySections(rep)...)
	case nav.DQTimeliness:
		out = append(out, timelinessSections(rep)...)
	case nav.DQAccDQ:
		out = append(out, accDQSections(s, d, rep)...)
	default:
		out = append(out, qualityOverviewSections(s, d, t, rep)...)
	}
	return out
}

func statusAlert(st quality.Status, what string) []Alert {
	switch {
	case !st.Computable:
		return []Alert{alert("info", "%s is not computable: %s.", what, st.Reason)}
	case st.Reference:
		return []Alert{alert("info", "%s uses reference values, not values measured on this data.", what)}
	}
	return nil
}

func qualityOverviewSections(s nav.State, d Data, t *table.Table, rep *quality.Report) []Section {
	ov := rep.Overview
	kpi := Section{Title: "Data overview", Width: 12, Cards: []Card{
		{Label: "Rows", Value: fmtInt(ov.Rows)},
		{Label: "Columns", Value: fmtInt(ov.Columns)},
		{Label: "Duplicate rows", Value: fmtInt(ov.DuplicateRows), Kind: kindIf(ov.DuplicateRows > 0, "warning")},
		{Label: "Null cells", Value: fmtInt(ov.NullCells), Kind: kindIf(ov.NullCells > 0, "warning")},
	}}

	profile := Table{Caption: "Data profile", Columns: []string{"Column", "Type", "Null count", "% Null", "Unique"}}
	for _, p := range rep.Profile {
		profile.Rows = append(profile.Rows, []string{
			p.Column, p.Type, fmtInt(p.NullCount), fmtFloat(p.NullPct, 2) + "%", fmtInt(p.Unique),
		})
	}

	sample := Table{Caption: "Sample rows", Columns: append([]string(nil), t.Columns...)}
	head := t.Head(SampleRows)
	for r := range head.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			if v := head.Value(r, c); v.Valid {
				cells[i] = v.S
			} else {
				cells[i] = "NaN"
			}
		}
		sample.Rows = append(sample.Rows, cells)
	}

	types := Chart{ID: "dq-types", Kind: ChartPie, Title: "Column types"}
	counts := Series{Name: "Columns"}
	for _, tc := range rep.Types {
		types.Labels = append(types.Labels, tc.Type)
		counts.Values = append(counts.Values, float64(tc.Count))
	}
	types.Series = []Series{counts}

	return []Section{
		kpi,
		{Title: "Profile", Width: 8, Tables: []Table{profile}},
		{Title: "Types", Width: 4, Charts: []Chart{types}},
		{Title: "Sample", Width: 12, Tables: []Table{sample}},
		outlierSection(s, d, t, rep.Outliers),
	}
}

func outlierSection(s nav.State, d Data, t *table.Table, o quality.OutlierReport) Section {
	sec := Section{Title: "Outliers (IQR)", Width: 12, Alerts: statusAlert(o.Status, "Outlier analysis")}
	if len(o.NumericColumns) == 0 {
		sec.Alerts = []Alert{alert("warning", "No numeric columns to analyse.")}
		return sec
	}
	form := getForm(s, d.Inputs, FieldOutlierColumn)
	field := FormField{Name: FieldOutlierColumn, Label: "Column", Type: "select"}
	for _, c := range o.NumericColumns {
		field.Options = append(field.Options, Option{Value: c, Label: c, Selected: c == o.Column})
	}
	form.Fields = []FormField{field}
	form.Submit = "Analyse"
	sec.Form = form
	if !o.Computable {
		return sec
	}

	sec.Cards = []Card{
		{Label: "Q1", Value: fmtFloat(o.Q1, 2)},
		{Label: "Q3", Value: fmtFloat(o.Q3, 2)},
		{Label: "IQR", Value: fmtFloat(o.IQR, 2)},
		{Label: "Lower", Value: fmtFloat(o.Lower, 2)},
		{Label: "Upper", Value: fmtFloat(o.Upper, 2)},
		{Label: "Outliers", Value: fmtInt(o.Count), Kind: kindIf(o.Count > 0, "danger")},
	}
	normal := Series{Name: "Normal"}
	outlier := Series{Name: "Outlier"}
	for i, v := range t.Floats(o.Column) {
		pt := Point{X: float64(i), Y: v}
		if i < len(o.Flags) && o.Flags[i] {
			outlier.Points = append(outlier.Points, pt)
		} else {
			normal.Points = append(normal.Points, pt)
		}
	}
	sec.Charts = []Chart{{
		ID: "dq-outliers", Kind: ChartScatter, Title: "Value distribution: " + o.Column,
		Series: []Series{normal, outlier},
		Lines:  []RefLine{{Label: "Lower", Value: o.Lower}, {Label: "Upper", Value: o.Upper}},
	}}
	return sec
}

// getForm: GET-форма на текущую страницу: параметры ссылки и прочие
// значения форм передаются скрытыми полями, кроме перечисленных в own.
func getForm(s nav.State, in Inputs, own ...string) *Form {
	hidden := map[string]string{}
	for k, v := range s.Params() {
		hidden[k] = v[0]
	}
	for k, v := range in.Values() {
		hidden[k] = v[0]
	}
	for _, k := range own {
		delete(hidden, k)
	}
	return &Form{Method: "get", Target: "/", Hidden: hidden}
}

func completenessSections(rep *quality.Report) []Section {
	c := rep.Completeness
	gauge := Chart{
		ID: "dq-completeness", Kind: ChartGauge, Title: "Dataset completeness", Max: 100, Unit: "%",
		Series: []Series{{Name: "Completeness", Values: []float64{c.Score * 100}}},
	}

	top := Chart{ID: "dq-top-null", Kind: ChartHBar, Title: "Columns with most missing values", Max: 100, Unit: "%"}
	share := Series{Name: "% Null"}
	for _, col := range c.TopNull {
		top.Labels = append(top.Labels, col.Column)
		share.Values = append(share.Values, col.NullShare*100)
	}
	top.Series = []Series{share}

	hist := Chart{ID: "dq-row-hist", Kind: ChartBar, Title: "Row completeness distribution"}
	rows := Series{Name: "Rows"}
	for i, n := range c.Rows.Counts {
		hist.Labels = append(hist.Labels, fmt.Sprintf("%.2f-%.2f", c.Rows.Edges[i], c.Rows.Edges[i+1]))
		rows.Values = append(rows.Values, float64(n))
	}
	hist.Series = []Series{rows}

	return []Section{
		{Title: "Global score", Width: 4, Charts: []Chart{gauge}},
		{Title: "Top missing fields", Width: 8, Charts: []Chart{top}},
		{Title: "Row level", Width: 12, Charts: []Chart{hist}},
	}
}

func consistencySections(rep *quality.Report) []Section {
	c := rep.Consistency
	bars := Chart{ID: "dq-rules", Kind: ChartHBar, Title: "Pass rate per rule", Max: 1.1}
	rates := Series{Name: "Pass rate"}
	tbl := Table{Columns: []string{"Rule", "Kind", "Pass rate", "Checked", "Note"}}
	for _, r := range c.Rules {
		note := ""
		switch {
		case !r.Computable:
			note = r.Reason
		case r.Reference:
			note = "reference value"
		}
		rate := "-"
		if r.Computable {
			rate = fmtPct(r.PassRate, 1)
			bars.Labels = append(bars.Labels, r.Rule.Name)
			rates.Values = append(rates.Values, r.PassRate)
		}
		tbl.Rows = append(tbl.Rows, []string{r.Rule.Name, string(r.Rule.Kind), rate, fmtInt(r.Checked), note})
	}
	bars.Series = []Series{rates}

	info := Section{Title: "Summary", Width: 4, Alerts: statusAlert(c.Status, "Consistency")}
	if c.Computable {
		info.Cards = []Card{{Label: "Mean consistency", Value: fmtPct(c.Mean, 1)}}
	}
	info.Bullets = []string{
		"Data Type: values match the declared column type.",
		"Uniqueness: no duplicated keys.",
		"Foreign Keys: references resolve in the target dataset.",
		"Logical: ordering constraints hold, e.g. start before end.",
		"Non-Null: rows are 100% filled.",
	}
	return []Section{
		{Title: "Consistency", Width: 8, Charts: []Chart{bars}, Tables: []Table{tbl}},
		info,
	}
}

func timelinessSections(rep *quality.Report) []Section {
	tm := rep.Timeliness
	left := Section{Title: "Timeliness", Width: 6, Alerts: statusAlert(tm.Status, "Timeliness")}
	if tm.Computable {
		left.Charts = []Chart{{
			ID: "dq-timeliness", Kind: ChartGauge, Title: "Timeliness score", Max: 100, Unit: "%",
			Series: []Series{{Name: "Timeliness", Values: []float64{tm.Score * 100}}},
		}}
		if len(tm.Phases) > 0 {
			ph := Chart{ID: "dq-timeliness-phases", Kind: ChartBar, Title: "Pass rate per phase", Max: 1}
			rates := Series{Name: "action_time <= cutoff"}
			for _, p := range tm.Phases {
				ph.Labels = append(ph.Labels, phaseLabel(p.Phase))
				rates.Values = append(rates.Values, p.PassRate)
			}
			ph.Series = []Series{rates}
			left.Charts = append(left.Charts, ph)
		}
	}
	if tm.Observation != "" {
		left.Alerts = append(left.Alerts, alert("info", "%s", tm.Observation))
	}

	u := rep.Uniqueness
	right := Section{Title: "Uniqueness", Width: 6, Alerts: statusAlert(u.KeyStatus, "Key uniqueness")}
	right.Cards = []Card{
		{Label: "Row uniqueness", Value: fmtPct(u.Row, 2), Hint: fmt.Sprintf("%d duplicate rows", u.DuplicateRows)},
	}
	if u.KeyStatus.Computable {
		right.Cards = append(right.Cards, Card{
			Label: "Key uniqueness (" + strings.Join(u.KeyColumns, ", ") + ")",
			Value: fmtPct(u.Key, 2),
			Hint:  fmt.Sprintf("%d duplicate keys", u.DuplicateKeys),
		})
	}
	return []Section{left, right}
}

func accDQSections(s nav.State, d Data, rep *quality.Report) []Section {
	a := rep.AccDQ
	form := getForm(s, d.Inputs, FieldF1, FieldBalAcc, FieldMCC, FieldKappa,
		FieldNaN, FieldMaj, FieldEnt, FieldDrift, FieldEff, FieldLeak)
	num := func(name, label string, v float64) FormField {
		return FormField{Name: name, Label: label, Type: "number", Min: "0", Max: "1", Step: "0.01",
			Value: strconv.FormatFloat(v, 'f', -1, 64)}
	}
	form.Fields = []FormField{
		num(FieldF1, "Macro-F1", a.Perf.MacroF1),
		num(FieldBalAcc, "Balanced Accuracy", a.Perf.BalancedAccuracy),
		num(FieldMCC, "MCC (normalised)", a.Perf.MCC),
		num(FieldKappa, "Kappa (normalised)", a.Perf.Kappa),
		num(FieldNaN, "s_nan", a.San.NonNull),
		num(FieldMaj, "s_maj", a.San.Majority),
		num(FieldEnt, "s_ent", a.San.Entropy),
		num(FieldDrift, "s_drift", a.San.Drift),
		num(FieldEff, "s_eff", a.San.Efficiency),
		num(FieldLeak, "s_leak", a.San.Leakage),
	}
	form.Submit = "Recalculate"

	inputs := Section{Title: "Inputs", Subtitle: originText(a.Origin), Width: 6, Form: form}
	if a.Note != "" {
		inputs.Alerts = append(inputs.Alerts, alert("info", "%s", a.Note))
	}

	result := Section{Title: "Acc-DQ", Subtitle: "100 · S_perf^0.6 · S_san^0.4", Width: 6}
	result.Cards = []Card{
		{Label: "S_perf", Value: fmtFloat(a.SPerf, 4)},
		{Label: "S_san", Value: fmtFloat(a.SSan, 4)},
		{Label: "Acc-DQ", Value: fmtFloat(a.Score, 2), Kind: kindIf(a.Warning, "danger")},
	}
	result.Charts = []Chart{{
		ID: "dq-accdq", Kind: ChartGauge, Title: "Acc-DQ score", Max: 100,
		Series: []Series{{Name: "Acc-DQ", Values: []float64{a.Score}}},
	}}
	if a.Warning {
		result.Alerts = []Alert{alert("danger", "Acc-DQ %.2f is below %.0f: predictions are not reliable.", a.Score, quality.WarningThreshold)}
	} else {
		result.Alerts = []Alert{alert("success", "Acc-DQ %.2f: predictions are usable.", a.Score)}
	}
	return []Section{inputs, result}
}

func originText(origin string) string {
	switch origin {
	case quality.FromInputs:
		return "Values entered in the form."
	case quality.FromPredictions:
		return "Values derived from label and predict."
	default:
		return "Default values."
	}
}

func kindIf(cond bool, kind string) string {
	if cond {
		return kind
	}
	return ""
}
