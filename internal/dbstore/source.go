package dbstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"moocdash/internal/dataset"
	"moocdash/internal/table"
)

// Source читает наборы, ранее загруженные Importer. Набора без
// ImportRecord нет: Load возвращает dataset.ErrNotFound.
type Source struct {
	db *gorm.DB
}

func NewSource(db *gorm.DB) *Source {
	return &Source{db: db}
}

func (s *Source) Load(ctx context.Context, spec dataset.Spec) (*table.Table, error) {
	db := s.db.WithContext(ctx)

	var rec ImportRecord
	err := db.Where("dataset = ?", spec.Name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("table %s: %w", spec.Name, dataset.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("import record %s: %w", spec.Name, err)
	}
	cols, err := rec.ColumnNames()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", spec.Name, err)
	}

	var rows []DatasetRow
	if err := db.Where("dataset = ?", spec.Name).Order("row_num").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("rows of %s: %w", spec.Name, err)
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		row, err := decodeRow(r.Cells, len(cols))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", spec.Name, r.RowNum, err)
		}
		out = append(out, row)
	}
	return table.New(spec.Name, cols, out), nil
}

// Imports: все записи об импорте по имени набора.
func (s *Source) Imports(ctx context.Context) ([]ImportRecord, error) {
	var recs []ImportRecord
	err := s.db.WithContext(ctx).Order("dataset").Find(&recs).Error
	return recs, err
}
