package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moocdash/internal/table"
)

// Имена наборов данных.
const (
	Courses = "courses"
	Users   = "users"
	Train   = "train"
	Clean   = "clean"
)

// Prediction: имя набора с предсказаниями для фазы 1..5.
func Prediction(phase int) string {
	return fmt.Sprintf("pred_p%d", phase)
}

const Phases = 5

type Spec struct {
	Name     string
	File     string
	Required []string
}

var specs = map[string]Spec{
	Courses: {Name: Courses, File: "course_info_final_P5.csv", Required: []string{"course_id", "course_name"}},
	Users:   {Name: Users, File: "test_P5_pred.csv", Required: []string{"user_id", "course_id"}},
	Train:   {Name: Train, File: "train_validate.csv", Required: []string{"user_id", "course_id"}},
	Clean:   {Name: Clean, File: "clean_data.csv"},
}

func init() {
	for p := 1; p <= Phases; p++ {
		name := Prediction(p)
		specs[name] = Spec{
			Name:     name,
			File:     fmt.Sprintf("test_P%d_pred.csv", p),
			Required: []string{"user_id", "course_id", "label", "predict"},
		}
	}
}

// Lookup возвращает описание набора по имени.
func Lookup(name string) (Spec, bool) {
	s, ok := specs[name]
	return s, ok
}

// Names: все известные наборы в стабильном порядке.
func Names() []string {
	out := []string{Courses, Users, Train, Clean}
	for p := 1; p <= Phases; p++ {
		out = append(out, Prediction(p))
	}
	return out
}

var ErrUnknownDataset = errors.New("unknown dataset")

// ErrNotFound: источника нет (файл/таблица отсутствует).
var ErrNotFound = errors.New("dataset not found")

// Source загружает сырую таблицу набора.
type Source interface {
	Load(ctx context.Context, spec Spec) (*table.Table, error)
}

// Replacer заменяет содержимое набора целиком (загрузка файла в админке).
// После замены кеш Store нужно сбросить.
type Replacer interface {
	Replace(ctx context.Context, spec Spec, t *table.Table) error
}

// Dataset: результат загрузки. При NotFound таблица пустая, но с ожидаемыми колонками.
type Dataset struct {
	Name     string
	Table    *table.Table
	Missing  []string
	NotFound bool
	LoadedAt time.Time
}

// OK: набор загружен и содержит все обязательные колонки.
func (d *Dataset) OK() bool {
	return d != nil && !d.NotFound && len(d.Missing) == 0
}

// ---------- CSV ----------

type CSVSource struct {
	Dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) Path(spec Spec) string {
	return filepath.Join(s.Dir, spec.File)
}

func (s *CSVSource) Load(ctx context.Context, spec Spec) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := table.ReadCSVFile(spec.Name, s.Path(spec))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path(spec), ErrNotFound)
	}
	return t, err
}

// Replace пишет таблицу во временный файл рядом с целевым и
// переименовывает его, чтобы читатели не увидели половину файла.
func (s *CSVSource) Replace(ctx context.Context, spec Spec, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.Dir, "."+spec.File+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := table.WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", spec.File, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path(spec))
}
