package view

import (
	"fmt"
	"math"
	"time"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/table"
)

// phaseSpans: подписи приростов между срезами P1..P5.
var phaseSpans = [dataset.Phases]string{"0-20%", "20-40%", "40-60%", "60-80%", "80-90%"}

func renderCourse(p *Page, s nav.State, d Data) {
	var courses *table.Table
	if d.Courses != nil {
		courses = d.Courses.Table
	} else {
		courses = table.Empty(dataset.Courses)
	}
	p.Alerts = datasetAlerts(d.Courses)

	course, ok := dataset.FindCourse(courses, s.CourseID)
	if !ok {
		p.Title = "Course not found"
		p.Alerts = append(p.Alerts, notFound("Course %s was not found.", s.CourseID))
		return
	}
	p.Title = course.Name
	p.Tabs = courseTabs(s)

	users := table.Empty(dataset.Users)
	if d.Users != nil {
		users = d.Users.Table
	}
	enrolled := users.WhereEq("course_id", course.ID)

	switch s.View {
	case nav.ViewUserList:
		p.Alerts = append(p.Alerts, datasetAlerts(d.Users)...)
		p.Sections = guard("users", func() []Section { return userListSections(s, d, enrolled) })
	case nav.ViewUserDetail:
		e, ok := dataset.FindEnrollment(users, s.UserID, course.ID)
		if !ok {
			p.Alerts = append(p.Alerts, datasetAlerts(d.Users)...)
			p.Alerts = append(p.Alerts, notFound("Student %s is not enrolled in %s.", s.UserID, course.ID))
			return
		}
		p.Title = "Student " + e.UserID
		p.Sections = guard("user", func() []Section { return userDetailSections(course, e) })
	default:
		p.Alerts = append(p.Alerts, datasetAlerts(d.Users)...)
		p.Sections = guard("course", func() []Section { return courseSections(course, enrolled) })
	}
}

// notFound: ошибка неверной ссылки с возвратом в каталог.
func notFound(format string, args ...any) Alert {
	a := alert("danger", format, args...)
	reset := act("Back to catalog", nav.ActReset, "")
	reset.Style = "danger"
	a.Action = &reset
	return a
}

func courseTabs(s nav.State) []Action {
	dash := act("Course overview", nav.ActSwitchView, string(nav.ViewDashboard))
	dash.Active = s.View == nav.ViewDashboard
	list := act("Students", nav.ActSwitchView, string(nav.ViewUserList))
	list.Active = s.View == nav.ViewUserList
	out := []Action{dash, list}
	if s.View == nav.ViewUserDetail {
		u := act("Student: "+s.UserID, nav.ActSwitchView, string(nav.ViewUserDetail))
		u.Active = true
		out = append(out, u)
	}
	back := act("Back", nav.ActBack, "")
	back.Style = "outline-secondary"
	return append(out, back)
}

func courseSections(c dataset.Course, enrolled *table.Table) []Section {
	cert := "No"
	if c.Certificate {
		cert = "Yes"
	}
	head := Section{Title: c.Name, Subtitle: c.ID, Width: 12, Cards: []Card{
		{Label: "Period", Value: fmtDate(c.Start.V, c.Start.Valid) + " - " + fmtDate(c.End.V, c.End.Valid)},
		{Label: "Videos", Value: fmtInt(c.VideoCount)},
		{Label: "Exercises", Value: fmtInt(c.ExerciseCount)},
		{Label: "Certificate", Value: cert, Kind: kindIf(c.Certificate, "success")},
	}}

	weights := Section{Title: "Score weights", Width: 6}
	if w := weightChart(c.Weights); len(w.Labels) > 0 {
		weights.Charts = []Chart{w}
	} else {
		weights.Alerts = []Alert{alert("info", "No score weights for this course.")}
	}

	es := dataset.EnrollmentsFrom(enrolled)
	drop := Section{Title: "Dropout", Width: 6}
	var preds []int
	for _, e := range es {
		if e.Predict.Valid {
			preds = append(preds, e.Predict.V)
		}
	}
	if len(preds) > 0 {
		pie := dropoutPie("course-dropout", "Predicted dropout rate", preds)
		pie.Kind = ChartDonut
		drop.Charts = []Chart{pie}
	} else {
		drop.Alerts = []Alert{alert("info", "No dropout predictions for this course.")}
	}

	out := []Section{head, weights, drop}
	if len(es) == 0 {
		return append(out, Section{Title: "Learning activity", Width: 12,
			Alerts: []Alert{alert("info", "No learning activity for this course.")}})
	}

	var events, attempts [dataset.Phases]float64
	for _, e := range es {
		for i, ph := range e.Phases {
			events[i] += ph.Events
			attempts[i] += ph.Attempts
		}
	}
	labels := courseTimeLabels(c)
	cum := Chart{
		ID: "course-cumulative", Kind: ChartLine, Title: "Cumulative activity over time", Labels: labels[:],
		Series: []Series{{Name: "Video (cumulative)", Values: events[:]}, {Name: "Exercise (cumulative)", Values: attempts[:]}},
	}
	inc := Chart{
		ID: "course-incremental", Kind: ChartBar, Title: "Engagement per phase", Labels: phaseSpans[:],
		Series: []Series{{Name: "Video", Values: increments(events)}, {Name: "Exercise", Values: increments(attempts)}},
	}
	return append(out,
		Section{Title: "Cumulative learning activity", Width: 12, Charts: []Chart{cum}},
		Section{Title: "Engagement per phase", Width: 12, Charts: []Chart{inc}},
	)
}

func weightChart(w dataset.ScoreWeights) Chart {
	ch := Chart{ID: "course-weights", Kind: ChartDonut, Title: "Contribution of each part"}
	vals := Series{Name: "Weight"}
	for _, part := range []struct {
		name string
		v    float64
	}{
		{"Assignment", w.Assignment}, {"Video", w.Video}, {"Exam", w.Exam},
		{"Discussion", w.Discussion}, {"Article", w.Article},
	} {
		if part.v > 0 {
			ch.Labels = append(ch.Labels, part.name)
			vals.Values = append(vals.Values, part.v)
		}
	}
	ch.Series = []Series{vals}
	return ch
}

// increments: приросты между соседними накопленными значениями; первый: само значение.
func increments(cum [dataset.Phases]float64) []float64 {
	out := make([]float64, len(cum))
	for i, v := range cum {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = v - cum[i-1]
	}
	return out
}

// courseTimeLabels: месяц среза start + длительность·доля; без дат: "P1 (20%)".
func courseTimeLabels(c dataset.Course) [dataset.Phases]string {
	if !c.Start.Valid || !c.End.Valid {
		return fallbackPhaseLabels()
	}
	days := math.Floor(c.End.V.Sub(c.Start.V).Hours() / 24)
	return timeLabels(c.Start.V, days)
}

func timeLabels(from time.Time, days float64) [dataset.Phases]string {
	var out [dataset.Phases]string
	for i, pct := range dataset.PhasePercents {
		out[i] = monthLabel(from.AddDate(0, 0, int(days*pct)))
	}
	return out
}

func fallbackPhaseLabels() [dataset.Phases]string {
	var out [dataset.Phases]string
	for i, pct := range dataset.PhasePercents {
		out[i] = fmt.Sprintf("P%d (%d%%)", i+1, int(math.Round(pct*100)))
	}
	return out
}
