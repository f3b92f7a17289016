package quality

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
)

// Summary: сводка отчёта для вывода в JSON: по одному числу на измерение.
type Summary struct {
	Dataset    string      `json:"dataset"`
	Rows       int         `json:"rows"`
	Columns    int         `json:"columns"`
	NullCells  int         `json:"null_cells"`
	Dimensions []Dimension `json:"dimensions"`
}

// Dimension: Score nil, если измерение не вычислимо (Reason: почему).
type Dimension struct {
	Name      string   `json:"name"`
	Score     *float64 `json:"score"`
	Reference bool     `json:"reference,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Note      string   `json:"note,omitempty"`
}

func score(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func dimension(name string, x float64, st Status) Dimension {
	d := Dimension{Name: name, Reference: st.Reference}
	if !st.Computable {
		d.Reason = st.Reason
		return d
	}
	d.Score = score(x)
	return d
}

func Summarize(rep *Report) Summary {
	s := Summary{
		Dataset:   rep.Dataset,
		Rows:      rep.Overview.Rows,
		Columns:   rep.Overview.Columns,
		NullCells: rep.Overview.NullCells,
	}

	s.Dimensions = append(s.Dimensions,
		dimension("completeness", rep.Completeness.Score, computed()),
		dimension("consistency", rep.Consistency.Mean, rep.Consistency.Status),
	)
	tl := dimension("timeliness", rep.Timeliness.Score, rep.Timeliness.Status)
	tl.Note = rep.Timeliness.Observation
	s.Dimensions = append(s.Dimensions, tl,
		dimension("uniqueness_rows", rep.Uniqueness.Row, computed()),
		dimension("uniqueness_key", rep.Uniqueness.Key, rep.Uniqueness.KeyStatus),
	)

	o := rep.Outliers
	out := dimension("outliers", float64(o.Count), o.Status)
	if o.Computable {
		out.Note = fmt.Sprintf("column %s, bounds [%g, %g]", o.Column, o.Lower, o.Upper)
	}
	s.Dimensions = append(s.Dimensions, out)

	acc := Dimension{Name: "acc_dq", Score: score(rep.AccDQ.Score), Note: rep.AccDQ.Origin}
	if rep.AccDQ.Warning {
		acc.Note += ", below warning threshold"
	}
	s.Dimensions = append(s.Dimensions, acc)
	return s
}

// WriteText печатает сводку таблицей.
func (s Summary) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "dataset %s: %d rows, %d columns, %d null cells\n\n", s.Dataset, s.Rows, s.Columns, s.NullCells)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tSCORE\tNOTE")
	for _, d := range s.Dimensions {
		val := "-"
		if d.Score != nil {
			val = fmt.Sprintf("%.4f", *d.Score)
		}
		note := d.Note
		if d.Reason != "" {
			note = "not computable: " + d.Reason
		}
		if d.Reference {
			note = "reference value " + note
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, val, note)
	}
	return tw.Flush()
}
