// Package datasettest: синтетические наборы данных для тестов.
// Это демо-заглушка: в продакшен-сборку она не подключается, сервер
// при отсутствии файлов показывает предупреждение, а не эти данные.
package datasettest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"moocdash/internal/dataset"
	"moocdash/internal/logger"
	"moocdash/internal/table"
)

const (
	CourseA = "C_course_a"
	CourseB = "C_course_b"
	CourseC = "C_course_c" // курс без слушателей

	UsersInA = 25
	UsersInB = 5
)

// UserID: идентификатор n-го (с 1) слушателя курса.
func UserID(course string, n int) string {
	return fmt.Sprintf("U_%s_%03d", course[len(course)-1:], n)
}

// Source: источник в памяти; набора нет в Tables → dataset.ErrNotFound.
type Source struct {
	mu     sync.Mutex
	Tables map[string]*table.Table
	Loads  map[string]int
}

func NewSource(tables map[string]*table.Table) *Source {
	return &Source{Tables: tables, Loads: map[string]int{}}
}

// Demo: полный синтетический комплект всех наборов.
func Demo() *Source {
	return NewSource(Tables())
}

func (s *Source) Load(_ context.Context, spec dataset.Spec) (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loads[spec.Name]++
	t, ok := s.Tables[spec.Name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", spec.Name, dataset.ErrNotFound)
	}
	return t, nil
}

func (s *Source) LoadCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Loads[name]
}

// NewStore: Store поверх Demo с тихим логгером.
func NewStore() (*dataset.Store, *Source) {
	src := Demo()
	return dataset.NewStore(src, time.Hour, logger.Nop()), src
}

func Tables() map[string]*table.Table {
	users := Enrollments()
	out := map[string]*table.Table{
		dataset.Courses: Courses(),
		dataset.Users:   users,
		dataset.Train:   Train(),
		dataset.Clean:   Clean(),
	}
	for p := 1; p <= dataset.Phases; p++ {
		out[dataset.Prediction(p)] = predictions(users, p)
	}
	return out
}

func row(vals ...string) table.Row {
	r := make(table.Row, len(vals))
	for i, v := range vals {
		r[i] = table.ParseCell(v)
	}
	return r
}

func Courses() *table.Table {
	cols := []string{"course_id", "course_name", "school_name", "class_start", "class_end",
		"class_duration_days", "video_count", "exercise_count", "certificate",
		"assignment", "video", "exam", "discussion", "article", "user_count"}
	return table.New(dataset.Courses, cols, []table.Row{
		row(CourseB, "Linear Algebra", "PKU", "2020-03-01", "2020-06-09", "100", "20", "10", "0", "0.5", "0.5", "0", "0", "0", strconv.Itoa(UsersInB)),
		row(CourseA, "Data Structures", "Tsinghua", "2020-01-01", "2020-04-10", "100", "40", "25", "1", "0.4", "0.2", "0.4", "0", "0", strconv.Itoa(UsersInA)),
		row(CourseC, "Quiet Course", "", "2020-05-01", "", "", "0", "0", "0", "", "", "", "", "", "0"),
	})
}

func enrollmentColumns() []string {
	cols := []string{"user_id", "course_id", "enroll_time", "user_num_prev_courses",
		"remaining_time", "class_duration_days", "label", "predict"}
	for p := 1; p <= dataset.Phases; p++ {
		for _, m := range []string{"num_events", "n_attempts", "num_videos", "accuracy_rate",
			"num_active_days", "active_days", "n_comments"} {
			cols = append(cols, dataset.PhaseColumn(m, p))
		}
	}
	return cols
}

// Enrollments: test_P5_pred: 25 слушателей курса A и 5 курса B.
// predict=1 у каждого третьего, label=1 у каждого четвёртого.
func Enrollments() *table.Table {
	var rows []table.Row
	add := func(course string, n int) {
		for i := 1; i <= n; i++ {
			vals := []string{
				UserID(course, i), course, "2020-01-05 08:00:00", strconv.Itoa(i % 3),
				strconv.Itoa(40 - i), "100", bit(i%4 == 0), bit(i%3 == 0),
			}
			for p := 1; p <= dataset.Phases; p++ {
				vals = append(vals,
					strconv.Itoa(i*p), // num_events
					strconv.Itoa(p),   // n_attempts
					strconv.Itoa(2*p), // num_videos
					"0.5",             // accuracy_rate
					strconv.Itoa(p),   // num_active_days
					strconv.Itoa(p+1), // active_days
					strconv.Itoa(i%2), // n_comments
				)
			}
			rows = append(rows, row(vals...))
		}
	}
	add(CourseA, UsersInA)
	add(CourseB, UsersInB)
	return table.New(dataset.Users, enrollmentColumns(), rows)
}

func predictions(users *table.Table, phase int) *table.Table {
	return table.New(dataset.Prediction(phase), users.Columns, users.Rows)
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Train: train_validate: по месяцу старта для графика тренда.
func Train() *table.Table {
	cols := []string{"user_id", "course_id", "label", "start_year", "start_month"}
	var rows []table.Row
	for i := 1; i <= 12; i++ {
		course := CourseA
		if i > 8 {
			course = CourseB
		}
		month := 1 + i%3
		rows = append(rows, row(fmt.Sprintf("T%02d", i), course, bit(i%4 == 0), "2020", strconv.Itoa(month)))
	}
	return table.New(dataset.Train, cols, rows)
}

// Clean: 10×2 с тремя null в колонке a: completeness = 0.85.
func Clean() *table.Table {
	cols := []string{"a", "b"}
	var rows []table.Row
	for i := 0; i < 10; i++ {
		a := strconv.Itoa(i)
		if i < 3 {
			a = ""
		}
		rows = append(rows, row(a, strconv.Itoa(i*10)))
	}
	return table.New(dataset.Clean, cols, rows)
}
