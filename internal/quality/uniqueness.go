package quality

import "moocdash/internal/table"

// DefaultKey: натуральный ключ записи о зачислении.
var DefaultKey = []string{"user_id", "course_id"}

type UniquenessResult struct {
	Row           float64
	DuplicateRows int

	Key           float64
	KeyColumns    []string
	DuplicateKeys int
	KeyStatus     Status
}

// Uniqueness: 1 − доля дубликатов на уровне строки и на уровне ключа.
// Пустая таблица уникальна. Без колонок ключа ключевой уровень не вычислим.
func Uniqueness(t *table.Table, key ...string) UniquenessResult {
	if len(key) == 0 {
		key = DefaultKey
	}
	res := UniquenessResult{KeyColumns: key}
	res.DuplicateRows = t.DuplicateRows()
	res.Row = 1 - ratio(res.DuplicateRows, t.Len(), 0)

	dup, err := t.DuplicateKeys(key...)
	if err != nil {
		res.KeyStatus = failed(notComputable("%v", err))
		return res
	}
	res.DuplicateKeys = dup
	res.Key = 1 - ratio(dup, t.Len(), 0)
	res.KeyStatus = computed()
	return res
}
