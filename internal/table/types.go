package table

import (
	"strconv"
	"strings"
)

// Имена типов как у pandas dtypes: их показывает профиль данных.
const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeBool   = "bool"
	TypeObject = "object"
)

// InferType повторяет вывод типов pandas: int с пропусками становится float64,
// колонка из одних null: float64.
func (t *Table) InferType(col string) string {
	i := t.ColumnIndex(col)
	if i < 0 {
		return TypeObject
	}
	var nonNull, ints, floats, bools int
	hasNull := false
	for _, r := range t.Rows {
		c := r.at(i)
		if !c.Valid {
			hasNull = true
			continue
		}
		nonNull++
		s := strings.TrimSpace(c.S)
		switch {
		case s == "True" || s == "False" || s == "true" || s == "false":
			bools++
		case isInt(s):
			ints++
		case isFloat(s):
			floats++
		}
	}
	switch {
	case nonNull == 0:
		return TypeFloat
	case bools == nonNull && !hasNull:
		return TypeBool
	case ints == nonNull && !hasNull:
		return TypeInt
	case ints+floats == nonNull:
		return TypeFloat
	default:
		return TypeObject
	}
}

// NumericColumns: колонки, которые pandas отнёс бы к числовым.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		switch t.InferType(c) {
		case TypeInt, TypeFloat:
			out = append(out, c)
		}
	}
	return out
}

// Conforms: соответствует ли значение объявленному типу.
func Conforms(c Cell, typ string) bool {
	s := strings.TrimSpace(c.S)
	switch typ {
	case TypeInt:
		return isInt(s)
	case TypeFloat:
		return isInt(s) || isFloat(s)
	case TypeBool:
		return s == "True" || s == "False" || s == "true" || s == "false" || s == "0" || s == "1"
	case "datetime":
		_, ok := ParseTime(s)
		return ok
	default:
		return true
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
