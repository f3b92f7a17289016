package view

import (
	"fmt"
	"math"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/table"
)

func userListSections(s nav.State, d Data, enrolled *table.Table) []Section {
	sec := Section{
		Title:    "Students",
		Subtitle: fmt.Sprintf("%s students enrolled", fmtInt(enrolled.Len())),
		Width:    12,
		Form:     searchForm(nav.ActSearchUsers, "Search by user id", s.UserQuery),
	}
	found := enrolled.Search(s.UserQuery, "user_id")
	pg := nav.Paginate(found.Len(), d.UserPageSize, s.UserPage)

	for _, e := range dataset.EnrollmentsFrom(found.Slice(pg.Start, pg.End)) {
		verdict := "-"
		if e.Predict.Valid {
			verdict = verdictLabel(e.WillDropOut())
		}
		open := act("View", nav.ActSelectUser, e.UserID)
		sec.Items = append(sec.Items, Item{
			Title:  e.UserID,
			Badge:  verdict,
			Fields: []Field{{Label: "Enrolled", Value: fmtDate(e.EnrollTime.V, e.EnrollTime.Valid)}},
			Action: open,
		})
	}
	if found.Len() == 0 {
		if s.UserQuery != "" {
			sec.Alerts = []Alert{alert("info", "No students match %q.", s.UserQuery)}
		} else {
			sec.Alerts = []Alert{alert("info", "No students are enrolled in this course.")}
		}
	}
	sec.Pager = pager(nav.ActUserPage, pg)
	return []Section{sec}
}

func verdictLabel(drop bool) string {
	if drop {
		return "Drop out"
	}
	return "Stay"
}

func userDetailSections(c dataset.Course, e dataset.Enrollment) []Section {
	fin := e.Final()
	info := Section{Title: "Basic information", Width: 4, Items: []Item{{
		Title: e.UserID,
		Fields: []Field{
			{Label: "Course", Value: e.CourseID},
			{Label: "Enrolled", Value: fmtDate(e.EnrollTime.V, e.EnrollTime.Valid)},
			{Label: "Courses taken", Value: fmtInt(e.PrevCourses + 1)},
			{Label: "Remaining", Value: fmtFloat(e.RemainingDays, 0) + " days"},
		},
	}}}

	activity := Section{Title: "Activity (P5)", Width: 8, Cards: []Card{
		{Label: "Video", Value: fmtInt(int(fin.Videos))},
		{Label: "Comment", Value: fmtInt(int(fin.Comments))},
		{Label: "Problem", Value: fmtInt(int(fin.Attempts))},
	}}
	activity.Charts = []Chart{{
		ID: "user-time", Kind: ChartGauge, Title: "Time elapsed", Max: 100, Unit: "%",
		Series: []Series{{Name: "Elapsed", Values: []float64{e.ElapsedRatio() * 100}}},
	}}

	scores := Section{Title: "Scores", Width: 6, Charts: []Chart{{
		ID: "user-scores", Kind: ChartBar, Title: "Score by activity", Max: 100, Unit: "%",
		Labels: []string{"Video", "Exercise"},
		Series: []Series{{Name: "Score", Values: []float64{videoScore(fin.Videos, c.VideoCount), clampPct(fin.AccuracyRate * 100)}}},
	}}}

	var events, attempts, videoDays, submitDays []float64
	for _, ph := range e.Phases {
		events = append(events, ph.Events)
		attempts = append(attempts, ph.Attempts)
		videoDays = append(videoDays, ph.VideoActiveDays)
		submitDays = append(submitDays, ph.SubmitActiveDays)
	}
	labels := fallbackPhaseLabels()
	if e.EnrollTime.Valid && e.DurationDays > 0 {
		labels = timeLabels(e.EnrollTime.V, e.DurationDays)
	}
	phases := Section{Title: "Video views and exercises per phase", Width: 6, Charts: []Chart{{
		ID: "user-phases", Kind: ChartLine, Title: "Per phase", Labels: labels[:],
		Series: []Series{{Name: "Video views", Values: events}, {Name: "Exercise attempts", Values: attempts}},
	}}}

	var phaseNames []string
	for p := 1; p <= dataset.Phases; p++ {
		phaseNames = append(phaseNames, phaseLabel(p))
	}
	active := Section{Title: "Active days (submit vs video)", Width: 12, Charts: []Chart{{
		ID: "user-active", Kind: ChartBar, Title: "Active days", Labels: phaseNames,
		Series: []Series{{Name: "Video Active Days", Values: videoDays}, {Name: "Submit Active Days", Values: submitDays}},
	}}}

	verdict := Section{Width: 12}
	switch {
	case !e.Predict.Valid:
		verdict.Alerts = []Alert{alert("info", "No prediction for this student.")}
	case e.WillDropOut():
		verdict.Alerts = []Alert{alert("danger", "Warning: this student is likely to drop out.")}
	default:
		verdict.Alerts = []Alert{alert("success", "This student is likely to complete the course.")}
	}
	return []Section{info, activity, scores, phases, active, verdict}
}

// videoScore: доля просмотренных видео курса в процентах; 0 для курса без видео.
func videoScore(watched float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clampPct(watched / float64(total) * 100)
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 100))
}
