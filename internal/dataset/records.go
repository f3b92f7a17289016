package dataset

import (
	"fmt"
	"math"
	"strings"
	"time"

	"moocdash/internal/table"
)

// Opt: необязательное значение поля; Valid=false значит null в источнике.
type Opt[T any] struct {
	V     T
	Valid bool
}

func Some[T any](v T) Opt[T] { return Opt[T]{V: v, Valid: true} }

func (o Opt[T]) Or(def T) T {
	if o.Valid {
		return o.V
	}
	return def
}

// PhasePercents: доля длительности курса, на которой снимается срез P1..P5.
var PhasePercents = [Phases]float64{0.2, 0.4, 0.6, 0.8, 0.9}

// ---------- Курс ----------

type ScoreWeights struct {
	Assignment float64
	Video      float64
	Exam       float64
	Discussion float64
	Article    float64
}

type Course struct {
	ID            string
	Name          string
	School        string
	Start         Opt[time.Time]
	End           Opt[time.Time]
	DurationDays  float64
	VideoCount    int
	ExerciseCount int
	Certificate   bool
	Weights       ScoreWeights
	UserCount     int
}

// ---------- Запись о зачислении ----------

type PhaseStats struct {
	Events           float64
	Attempts         float64
	Videos           float64
	AccuracyRate     float64
	VideoActiveDays  float64
	SubmitActiveDays float64
	Comments         float64
	Sentiment        Opt[float64]
}

type Enrollment struct {
	UserID        string
	CourseID      string
	EnrollTime    Opt[time.Time]
	PrevCourses   int
	RemainingDays float64
	DurationDays  float64
	Label         Opt[int]
	Predict       Opt[int]
	Phases        [Phases]PhaseStats
}

// Final: последний срез (P5), по нему строятся карточки пользователя.
func (e Enrollment) Final() PhaseStats { return e.Phases[Phases-1] }

// ElapsedRatio: доля прошедшего времени курса в [0,1]; 0 при нулевой длительности.
func (e Enrollment) ElapsedRatio() float64 {
	if e.DurationDays <= 0 {
		return 0
	}
	elapsed := math.Max(e.DurationDays-e.RemainingDays, 0)
	return math.Min(elapsed/e.DurationDays, 1)
}

func (e Enrollment) WillDropOut() bool { return e.Predict.Or(0) == 1 }

// ---------- train_validate ----------

type TrainRow struct {
	UserID     string
	CourseID   string
	Label      Opt[int]
	StartYear  Opt[int]
	StartMonth Opt[int]
}

// ---------- декодирование ----------
// Вся политика null-значений собрана здесь: счётчики и доли → 0,
// даты, метки и предсказания остаются Opt.

type rowReader struct {
	t *table.Table
	r int
}

func (rr rowReader) cell(col string) table.Cell { return rr.t.Value(rr.r, col) }

func (rr rowReader) str(col string) string { return strings.TrimSpace(rr.cell(col).String()) }

func (rr rowReader) float(col string) float64 {
	f, _ := rr.cell(col).Float()
	return f
}

func (rr rowReader) integer(col string) int { return int(rr.float(col)) }

func (rr rowReader) optFloat(col string) Opt[float64] {
	if f, ok := rr.cell(col).Float(); ok {
		return Some(f)
	}
	return Opt[float64]{}
}

func (rr rowReader) optInt(col string) Opt[int] {
	if f, ok := rr.cell(col).Float(); ok {
		return Some(int(f))
	}
	return Opt[int]{}
}

func (rr rowReader) optTime(col string) Opt[time.Time] {
	if ts, ok := rr.cell(col).Time(); ok {
		return Some(ts)
	}
	return Opt[time.Time]{}
}

func (rr rowReader) flag(col string) bool {
	c := rr.cell(col)
	switch strings.ToLower(strings.TrimSpace(c.S)) {
	case "true", "yes":
		return c.Valid
	}
	return rr.integer(col) == 1
}

func decodeCourse(rr rowReader) Course {
	c := Course{
		ID:            rr.str("course_id"),
		Name:          rr.str("course_name"),
		School:        rr.str("school_name"),
		Start:         rr.optTime("class_start"),
		End:           rr.optTime("class_end"),
		VideoCount:    rr.integer("video_count"),
		ExerciseCount: rr.integer("exercise_count"),
		Certificate:   rr.flag("certificate"),
		UserCount:     rr.integer("user_count"),
		Weights: ScoreWeights{
			Assignment: rr.float("assignment"),
			Video:      rr.float("video"),
			Exam:       rr.float("exam"),
			Discussion: rr.float("discussion"),
			Article:    rr.float("article"),
		},
	}
	if d, ok := rr.cell("class_duration_days").Float(); ok {
		c.DurationDays = d
	} else if c.Start.Valid && c.End.Valid {
		c.DurationDays = c.End.V.Sub(c.Start.V).Hours() / 24
	}
	return c
}

func decodeEnrollment(rr rowReader) Enrollment {
	e := Enrollment{
		UserID:        rr.str("user_id"),
		CourseID:      rr.str("course_id"),
		EnrollTime:    rr.optTime("enroll_time"),
		PrevCourses:   rr.integer("user_num_prev_courses"),
		RemainingDays: rr.float("remaining_time"),
		DurationDays:  rr.float("class_duration_days"),
		Label:         rr.optInt("label"),
		Predict:       rr.optInt("predict"),
	}
	for i := 0; i < Phases; i++ {
		p := i + 1
		e.Phases[i] = PhaseStats{
			Events:           rr.float(phaseCol("num_events", p)),
			Attempts:         rr.float(phaseCol("n_attempts", p)),
			Videos:           rr.float(phaseCol("num_videos", p)),
			AccuracyRate:     rr.float(phaseCol("accuracy_rate", p)),
			VideoActiveDays:  rr.float(phaseCol("num_active_days", p)),
			SubmitActiveDays: rr.float(phaseCol("active_days", p)),
			Comments:         rr.float(phaseCol("n_comments", p)),
			Sentiment:        rr.optFloat(phaseCol("sentiment", p)),
		}
	}
	return e
}

func decodeTrainRow(rr rowReader) TrainRow {
	return TrainRow{
		UserID:     rr.str("user_id"),
		CourseID:   rr.str("course_id"),
		Label:      rr.optInt("label"),
		StartYear:  rr.optInt("start_year"),
		StartMonth: rr.optInt("start_month"),
	}
}

// PhaseColumn: имя колонки метрики для фазы, например num_events_P3.
func PhaseColumn(metric string, phase int) string { return phaseCol(metric, phase) }

func phaseCol(metric string, phase int) string {
	return fmt.Sprintf("%s_P%d", metric, phase)
}

func CoursesFrom(t *table.Table) []Course {
	out := make([]Course, t.Len())
	for i := range out {
		out[i] = decodeCourse(rowReader{t, i})
	}
	return out
}

// FindCourse: первая строка с данным course_id.
func FindCourse(t *table.Table, id string) (Course, bool) {
	m := t.WhereEq("course_id", id)
	if m.Len() == 0 {
		return Course{}, false
	}
	return decodeCourse(rowReader{m, 0}), true
}

func EnrollmentsFrom(t *table.Table) []Enrollment {
	out := make([]Enrollment, t.Len())
	for i := range out {
		out[i] = decodeEnrollment(rowReader{t, i})
	}
	return out
}

func FindEnrollment(t *table.Table, userID, courseID string) (Enrollment, bool) {
	m := t.WhereEq("course_id", courseID).WhereEq("user_id", userID)
	if m.Len() == 0 {
		return Enrollment{}, false
	}
	return decodeEnrollment(rowReader{m, 0}), true
}

func TrainRowsFrom(t *table.Table) []TrainRow {
	out := make([]TrainRow, t.Len())
	for i := range out {
		out[i] = decodeTrainRow(rowReader{t, i})
	}
	return out
}
