package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cell: одна ячейка таблицы; Valid=false означает null.
type Cell struct {
	S     string
	Valid bool
}

func Str(s string) Cell { return Cell{S: s, Valid: true} }

var Null = Cell{}

func (c Cell) Float() (float64, bool) {
	if !c.Valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(c.S), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (c Cell) Time() (time.Time, bool) {
	if !c.Valid {
		return time.Time{}, false
	}
	return ParseTime(c.S)
}

func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.S
}

type Row []Cell

// Table: неизменяемая после загрузки таблица. Фильтры возвращают новую
// таблицу, строки разделяются с исходной.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row

	index map[string]int
}

func New(name string, columns []string, rows []Row) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.index = make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	return t
}

// Empty: таблица без строк с заданными колонками.
func Empty(name string, columns ...string) *Table {
	return New(name, columns, nil)
}

func (t *Table) derive(rows []Row) *Table {
	return &Table{Name: t.Name, Columns: t.Columns, Rows: rows, index: t.index}
}

func (t *Table) Len() int   { return len(t.Rows) }
func (t *Table) Width() int { return len(t.Columns) }

func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) Has(name string) bool { return t.ColumnIndex(name) >= 0 }

// Missing возвращает те из required, которых нет в таблице, в исходном порядке.
func (t *Table) Missing(required ...string) []string {
	var out []string
	for _, c := range required {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Require: как Missing, но сразу в виде ошибки.
func (t *Table) Require(required ...string) error {
	if m := t.Missing(required...); len(m) > 0 {
		return &MissingColumnsError{Table: t.Name, Columns: m}
	}
	return nil
}

func (t *Table) Value(row int, col string) Cell {
	i := t.ColumnIndex(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return Null
	}
	return t.Rows[row].at(i)
}

func (r Row) at(i int) Cell {
	if i < 0 || i >= len(r) {
		return Null
	}
	return r[i]
}

func (t *Table) Column(col string) []Cell {
	i := t.ColumnIndex(col)
	if i < 0 {
		return nil
	}
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row.at(i)
	}
	return out
}

// Floats: числовые значения колонки; null и нечисловые пропускаются.
func (t *Table) Floats(col string) []float64 {
	i := t.ColumnIndex(col)
	if i < 0 {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := row.at(i).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Sum: сумма числовых значений колонки (pandas .sum() пропускает NaN).
func (t *Table) Sum(col string) float64 {
	var s float64
	for _, f := range t.Floats(col) {
		s += f
	}
	return s
}

func (t *Table) Filter(pred func(Row) bool) *Table {
	rows := make([]Row, 0)
	for _, r := range t.Rows {
		if pred(r) {
			rows = append(rows, r)
		}
	}
	return t.derive(rows)
}

func (t *Table) WhereEq(col, value string) *Table {
	i := t.ColumnIndex(col)
	if i < 0 {
		return t.derive(nil)
	}
	return t.Filter(func(r Row) bool {
		c := r.at(i)
		return c.Valid && c.S == value
	})
}

// Search: регистронезависимый поиск подстроки по колонкам; null не совпадает никогда.
func (t *Table) Search(q string, cols ...string) *Table {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return t
	}
	var idx []int
	for _, c := range cols {
		if i := t.ColumnIndex(c); i >= 0 {
			idx = append(idx, i)
		}
	}
	return t.Filter(func(r Row) bool {
		for _, i := range idx {
			c := r.at(i)
			if c.Valid && strings.Contains(strings.ToLower(c.S), q) {
				return true
			}
		}
		return false
	})
}

// Slice: строки [start, end), границы обрезаются по размеру таблицы.
func (t *Table) Slice(start, end int) *Table {
	if start < 0 {
		start = 0
	}
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	if start >= end {
		return t.derive(nil)
	}
	return t.derive(t.Rows[start:end])
}

func (t *Table) Head(n int) *Table { return t.Slice(0, n) }

// SortBy: устойчивая сортировка; числа сравниваются как числа, null всегда в конце.
func (t *Table) SortBy(col string, desc bool) *Table {
	i := t.ColumnIndex(col)
	rows := append([]Row(nil), t.Rows...)
	if i < 0 {
		return t.derive(rows)
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ca, cb := rows[a].at(i), rows[b].at(i)
		if !ca.Valid || !cb.Valid {
			return ca.Valid && !cb.Valid
		}
		fa, okA := ca.Float()
		fb, okB := cb.Float()
		if okA && okB {
			if desc {
				return fa > fb
			}
			return fa < fb
		}
		if desc {
			return ca.S > cb.S
		}
		return ca.S < cb.S
	})
	return t.derive(rows)
}

func (t *Table) NullCount(col string) int {
	i := t.ColumnIndex(col)
	if i < 0 {
		return 0
	}
	n := 0
	for _, r := range t.Rows {
		if !r.at(i).Valid {
			n++
		}
	}
	return n
}

// NullCells: число null-ячеек во всей таблице.
func (t *Table) NullCells() int {
	n := 0
	for _, r := range t.Rows {
		for i := range t.Columns {
			if !r.at(i).Valid {
				n++
			}
		}
	}
	return n
}

// CompleteRows: строки без единого null.
func (t *Table) CompleteRows() int {
	n := 0
	for _, r := range t.Rows {
		if rowComplete(r, len(t.Columns)) {
			n++
		}
	}
	return n
}

func rowComplete(r Row, width int) bool {
	for i := 0; i < width; i++ {
		if !r.at(i).Valid {
			return false
		}
	}
	return true
}

// UniqueCount: число различных не-null значений (как pandas nunique).
func (t *Table) UniqueCount(col string) int {
	i := t.ColumnIndex(col)
	if i < 0 {
		return 0
	}
	seen := make(map[string]struct{})
	for _, r := range t.Rows {
		if c := r.at(i); c.Valid {
			seen[c.S] = struct{}{}
		}
	}
	return len(seen)
}

// DuplicateRows: число строк, полностью повторяющих одну из предыдущих.
func (t *Table) DuplicateRows() int {
	all := make([]int, len(t.Columns))
	for i := range all {
		all[i] = i
	}
	return t.duplicates(all)
}

// DuplicateKeys: то же на уровне натурального ключа.
func (t *Table) DuplicateKeys(cols ...string) (int, error) {
	if err := t.Require(cols...); err != nil {
		return 0, err
	}
	idx := make([]int, len(cols))
	for k, c := range cols {
		idx[k] = t.ColumnIndex(c)
	}
	return t.duplicates(idx), nil
}

func (t *Table) duplicates(idx []int) int {
	seen := make(map[string]struct{}, len(t.Rows))
	dup := 0
	var b strings.Builder
	for _, r := range t.Rows {
		b.Reset()
		for _, i := range idx {
			c := r.at(i)
			if c.Valid {
				b.WriteByte(1)
				b.WriteString(c.S)
			} else {
				b.WriteByte(0)
			}
			b.WriteByte(0x1f)
		}
		k := b.String()
		if _, ok := seen[k]; ok {
			dup++
			continue
		}
		seen[k] = struct{}{}
	}
	return dup
}

// MissingColumnsError: в таблице нет колонок, нужных метрике или графику.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("table %q: missing columns %s", e.Table, strings.Join(e.Columns, ", "))
}
