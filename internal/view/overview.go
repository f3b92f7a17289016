package view

import (
	"fmt"
	"sort"
	"strconv"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/table"
)

// TopCourses: размер рейтинга курсов по числу отчислений.
const TopCourses = 5

func overviewSections(s nav.State, d Data) []Section {
	var out []Section

	kpi := Section{Title: "Overview", Width: 12, Alerts: datasetAlerts(d.Train)}
	var train *table.Table
	if d.Train != nil {
		train = d.Train.Table
	} else {
		train = table.Empty(dataset.Train)
	}
	rate := 0.0
	if labels := train.Floats("label"); len(labels) > 0 {
		var sum float64
		for _, l := range labels {
			sum += l
		}
		rate = sum / float64(len(labels))
	}
	kpi.Cards = []Card{
		{Label: "Students", Value: fmtInt(train.UniqueCount("user_id"))},
		{Label: "Courses", Value: fmtInt(train.UniqueCount("course_id"))},
		{Label: "Enrolments", Value: fmtInt(train.Len())},
		{Label: "Dropout rate", Value: fmtPct(rate, 1), Kind: "danger"},
	}
	out = append(out, kpi)

	trend := Section{Title: "Enrolment trend", Width: 8}
	labels, counts := countBy(startMonths(dataset.TrainRowsFrom(train)))
	trend.Charts = []Chart{{
		ID: "enrol-trend", Kind: ChartLine, Title: "Enrolments by start month",
		Labels: labels, Series: []Series{{Name: "Enrolments", Values: counts}},
	}}
	out = append(out, trend)

	out = append(out, Section{Title: fmt.Sprintf("Top %d courses by dropouts", TopCourses), Width: 4,
		Tables: []Table{topCourses(train, d.Courses)}})

	out = append(out, phaseSections(s, d)...)
	return out
}

func startMonths(rows []dataset.TrainRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if !r.StartYear.Valid || !r.StartMonth.Valid {
			continue
		}
		out = append(out, fmt.Sprintf("%04d-%02d", r.StartYear.V, r.StartMonth.V))
	}
	return out
}

func topCourses(train *table.Table, courses *dataset.Dataset) Table {
	names := map[string]string{}
	if courses != nil {
		for _, c := range dataset.CoursesFrom(courses.Table) {
			names[c.ID] = c.Name
		}
	}
	drops := map[string]int{}
	for _, r := range dataset.TrainRowsFrom(train) {
		if r.Label.Valid && r.Label.V == 1 {
			drops[r.CourseID]++
		}
	}
	ids := make([]string, 0, len(drops))
	for id := range drops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if drops[ids[i]] != drops[ids[j]] {
			return drops[ids[i]] > drops[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > TopCourses {
		ids = ids[:TopCourses]
	}
	t := Table{Columns: []string{"#", "Course", "Name", "Dropouts"}}
	for i, id := range ids {
		name := names[id]
		if name == "" {
			name = "-"
		}
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), id, name, fmtInt(drops[id])})
	}
	return t
}

// phaseSections: выбор фазы и прогноз отчислений по фазам 1..выбранная:
// для прошлых фаз считается label, для выбранной: predict.
func phaseSections(s nav.State, d Data) []Section {
	sel := s.Phase
	selector := Section{Title: "Phase", Width: 12}
	for p := 1; p <= dataset.Phases; p++ {
		a := act(phaseLabel(p), nav.ActPhase, strconv.Itoa(p))
		a.Active = p == sel
		selector.Actions = append(selector.Actions, a)
	}

	current := d.Predictions[sel-1]
	selector.Alerts = datasetAlerts(current)

	bars := Chart{ID: "phase-dropouts", Kind: ChartBar, Title: fmt.Sprintf("Predicted dropouts (phase %d)", sel)}
	actual := Series{Name: "Label"}
	predicted := Series{Name: "Predict"}
	for p := 1; p <= sel; p++ {
		bars.Labels = append(bars.Labels, phaseLabel(p))
		var col string
		if p < sel {
			col = "label"
		} else {
			col = "predict"
		}
		n := countOnes(d.Predictions[p-1], col)
		if p < sel {
			actual.Values = append(actual.Values, n)
			predicted.Values = append(predicted.Values, 0)
		} else {
			actual.Values = append(actual.Values, 0)
			predicted.Values = append(predicted.Values, n)
		}
	}
	bars.Series = []Series{actual, predicted}
	bars.Stacked = true

	var videos, attempts float64
	var preds []int
	if current != nil {
		videos = current.Table.Sum(dataset.PhaseColumn("num_videos", sel))
		attempts = current.Table.Sum(dataset.PhaseColumn("n_attempts", sel))
		preds = validInts(current.Table, "predict")
	}
	var allVideos, allExercises float64
	if d.Courses != nil {
		allVideos = d.Courses.Table.Sum("video_count")
		allExercises = d.Courses.Table.Sum("exercise_count")
	}
	selector.Cards = []Card{
		{Label: fmt.Sprintf("Video views (phase %d)", sel), Value: fmtInt(int(videos))},
		{Label: fmt.Sprintf("Submissions (phase %d)", sel), Value: fmtInt(int(attempts))},
		{Label: "Videos in catalogue", Value: fmtInt(int(allVideos))},
		{Label: "Exercises in catalogue", Value: fmtInt(int(allExercises))},
	}

	charts := Section{Width: 12, Charts: []Chart{
		bars,
		dropoutPie("phase-pie", fmt.Sprintf("Stay vs drop out (phase %d)", sel), preds),
	}}
	return []Section{selector, charts}
}

func countOnes(d *dataset.Dataset, col string) float64 {
	if d == nil {
		return 0
	}
	var n float64
	for _, f := range d.Table.Floats(col) {
		if f == 1 {
			n++
		}
	}
	return n
}

func validInts(t *table.Table, col string) []int {
	fs := t.Floats(col)
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out
}
