package dbstore

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"moocdash/internal/table"
)

// ---------- Импорт ----------

// ImportRecord: последний импорт набора: колонки и число строк.
// Строки набора лежат в DatasetRow.
type ImportRecord struct {
	ID         uint           `gorm:"primaryKey"`
	Dataset    string         `gorm:"size:64;uniqueIndex;not null"`
	File       string         `gorm:"size:255"`
	Header     datatypes.JSON `gorm:"not null"` // ["user_id", ...]
	RowCount   int            `gorm:"not null;default:0"`
	ImportedAt time.Time      `gorm:"not null"`
}

// ColumnNames: колонки из JSON; битый JSON даёт ошибку.
func (r ImportRecord) ColumnNames() ([]string, error) {
	var cols []string
	if err := json.Unmarshal(r.Header, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// ---------- Строки ----------

// DatasetRow: одна строка таблицы. Cells: JSON-массив строк, null = пропуск.
type DatasetRow struct {
	ID      uint           `gorm:"primaryKey"`
	Dataset string         `gorm:"size:64;not null;index:idx_dataset_row,priority:1"`
	RowNum  int            `gorm:"not null;index:idx_dataset_row,priority:2"`
	Cells   datatypes.JSON `gorm:"not null"`
}

func encodeRow(r table.Row) (datatypes.JSON, error) {
	cells := make([]*string, len(r))
	for i, c := range r {
		if c.Valid {
			s := c.S
			cells[i] = &s
		}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeRow(raw datatypes.JSON, width int) (table.Row, error) {
	var cells []*string
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, err
	}
	row := make(table.Row, width)
	for i := 0; i < width && i < len(cells); i++ {
		if cells[i] != nil {
			row[i] = table.Str(*cells[i])
		}
	}
	return row, nil
}
