package quality

import (
	"fmt"
	"strings"

	"moocdash/internal/table"
)

type RuleKind string

const (
	// KindFixed: справочная доля без вычисления.
	KindFixed      RuleKind = "fixed"
	KindDataType   RuleKind = "data_type"
	KindKeyUnique  RuleKind = "key_unique"
	KindForeignKey RuleKind = "foreign_key"
	KindRange      RuleKind = "range"
	KindLogical    RuleKind = "logical"
	KindNonNull    RuleKind = "non_null"
)

// Rule: одно правило согласованности. Какие поля значимы, зависит от Kind.
//
// Обработка null:
//   - data_type, range: null проходит (правило к пустому значению неприменимо);
//   - key_unique, foreign_key, logical, non_null: null не проходит.
type Rule struct {
	Name string   `yaml:"name"`
	Kind RuleKind `yaml:"kind"`

	Value float64 `yaml:"value,omitempty"` // fixed

	Columns []string          `yaml:"columns,omitempty"` // key_unique, non_null (пусто = все)
	Types   map[string]string `yaml:"types,omitempty"`   // data_type: колонка → int64|float64|bool|datetime

	Column string   `yaml:"column,omitempty"` // foreign_key, range
	Ref    string   `yaml:"ref,omitempty"`    // foreign_key: dataset.column
	Min    *float64 `yaml:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty"`

	Before string `yaml:"before,omitempty"` // logical: Before < After
	After  string `yaml:"after,omitempty"`
}

type RuleResult struct {
	Rule     Rule
	PassRate float64
	Checked  int
	Status
}

// Refs: таблицы, на которые ссылаются правила foreign_key, по имени набора.
type Refs map[string]*table.Table

// Validate проверяет, что у правила заполнены поля его вида.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule without name (kind %q)", r.Kind)
	}
	switch r.Kind {
	case KindFixed:
		if r.Value < 0 || r.Value > 1 {
			return fmt.Errorf("rule %q: value %v outside [0,1]", r.Name, r.Value)
		}
	case KindDataType:
		if len(r.Types) == 0 {
			return fmt.Errorf("rule %q: types required", r.Name)
		}
	case KindKeyUnique:
		if len(r.Columns) == 0 {
			return fmt.Errorf("rule %q: columns required", r.Name)
		}
	case KindForeignKey:
		if r.Column == "" || !strings.Contains(r.Ref, ".") {
			return fmt.Errorf("rule %q: column and ref (dataset.column) required", r.Name)
		}
	case KindRange:
		if r.Column == "" || (r.Min == nil && r.Max == nil) {
			return fmt.Errorf("rule %q: column and min or max required", r.Name)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("rule %q: min > max", r.Name)
		}
	case KindLogical:
		if r.Before == "" || r.After == "" {
			return fmt.Errorf("rule %q: before and after required", r.Name)
		}
	case KindNonNull:
	default:
		return fmt.Errorf("rule %q: unknown kind %q", r.Name, r.Kind)
	}
	return nil
}

// Evaluate считает долю прошедших проверку строк (или ячеек для data_type).
func (r Rule) Evaluate(t *table.Table, refs Refs) RuleResult {
	res := RuleResult{Rule: r}
	var pass, total int
	var err error

	switch r.Kind {
	case KindFixed:
		res.PassRate = r.Value
		res.Status = Status{Computable: true, Reference: true}
		return res
	case KindDataType:
		pass, total, err = r.dataType(t)
	case KindKeyUnique:
		pass, total, err = r.keyUnique(t)
	case KindForeignKey:
		pass, total, err = r.foreignKey(t, refs)
	case KindRange:
		pass, total, err = r.inRange(t)
	case KindLogical:
		pass, total, err = r.logical(t)
	case KindNonNull:
		pass, total, err = r.nonNull(t)
	default:
		err = notComputable("rule %q: unknown kind %q", r.Name, r.Kind)
	}
	if err != nil {
		res.Status = failed(err)
		return res
	}
	res.PassRate = ratio(pass, total, 1)
	res.Checked = total
	res.Status = computed()
	return res
}

func requireColumns(t *table.Table, cols ...string) error {
	if m := t.Missing(cols...); len(m) > 0 {
		return notComputable("missing columns %s", strings.Join(m, ", "))
	}
	return nil
}

func (r Rule) dataType(t *table.Table) (pass, total int, err error) {
	checked := 0
	for col, typ := range r.Types {
		i := t.ColumnIndex(col)
		if i < 0 {
			continue
		}
		checked++
		for row := range t.Rows {
			c := t.Value(row, col)
			total++
			if !c.Valid || table.Conforms(c, typ) {
				pass++
			}
		}
	}
	if checked == 0 {
		return 0, 0, notComputable("none of the typed columns present")
	}
	return pass, total, nil
}

func (r Rule) keyUnique(t *table.Table) (pass, total int, err error) {
	if err := requireColumns(t, r.Columns...); err != nil {
		return 0, 0, err
	}
	seen := make(map[string]struct{}, t.Len())
	for row := range t.Rows {
		total++
		var b strings.Builder
		ok := true
		for _, col := range r.Columns {
			c := t.Value(row, col)
			if !c.Valid {
				ok = false
				break
			}
			b.WriteString(c.S)
			b.WriteByte(0x1f)
		}
		if !ok {
			continue
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		pass++
	}
	return pass, total, nil
}

func (r Rule) foreignKey(t *table.Table, refs Refs) (pass, total int, err error) {
	if err := requireColumns(t, r.Column); err != nil {
		return 0, 0, err
	}
	name, col, _ := strings.Cut(r.Ref, ".")
	ref, ok := refs[name]
	if !ok || ref == nil {
		return 0, 0, notComputable("reference dataset %q not loaded", name)
	}
	if !ref.Has(col) {
		return 0, 0, notComputable("reference column %s missing", r.Ref)
	}
	keys := make(map[string]struct{}, ref.Len())
	for _, c := range ref.Column(col) {
		if c.Valid {
			keys[c.S] = struct{}{}
		}
	}
	for _, c := range t.Column(r.Column) {
		total++
		if !c.Valid {
			continue
		}
		if _, ok := keys[c.S]; ok {
			pass++
		}
	}
	return pass, total, nil
}

func (r Rule) inRange(t *table.Table) (pass, total int, err error) {
	if err := requireColumns(t, r.Column); err != nil {
		return 0, 0, err
	}
	for _, c := range t.Column(r.Column) {
		total++
		if !c.Valid {
			pass++
			continue
		}
		f, ok := c.Float()
		if !ok {
			continue
		}
		if (r.Min == nil || f >= *r.Min) && (r.Max == nil || f <= *r.Max) {
			pass++
		}
	}
	return pass, total, nil
}

func (r Rule) logical(t *table.Table) (pass, total int, err error) {
	if err := requireColumns(t, r.Before, r.After); err != nil {
		return 0, 0, err
	}
	for row := range t.Rows {
		total++
		if less(t.Value(row, r.Before), t.Value(row, r.After)) {
			pass++
		}
	}
	return pass, total, nil
}

// less сравнивает как даты, иначе как числа; null и несравнимое: false.
func less(a, b table.Cell) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	if ta, ok := a.Time(); ok {
		if tb, ok := b.Time(); ok {
			return ta.Before(tb)
		}
	}
	fa, okA := a.Float()
	fb, okB := b.Float()
	return okA && okB && fa < fb
}

func (r Rule) nonNull(t *table.Table) (pass, total int, err error) {
	if len(r.Columns) == 0 {
		return t.CompleteRows(), t.Len(), nil
	}
	if err := requireColumns(t, r.Columns...); err != nil {
		return 0, 0, err
	}
	for row := range t.Rows {
		total++
		ok := true
		for _, col := range r.Columns {
			if !t.Value(row, col).Valid {
				ok = false
				break
			}
		}
		if ok {
			pass++
		}
	}
	return pass, total, nil
}

// DefaultRules: набор исходного отчёта: четыре справочных значения
// и вычисляемая доля полных строк.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "Data Type", Kind: KindFixed, Value: 1.0},
		{Name: "Uniqueness", Kind: KindFixed, Value: 1.0},
		{Name: "Foreign Keys", Kind: KindFixed, Value: 1.0},
		{Name: "Logical Constraints", Kind: KindFixed, Value: 0.47},
		{Name: "Non-Null", Kind: KindNonNull},
	}
}
