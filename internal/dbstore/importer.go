package dbstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moocdash/internal/dataset"
	"moocdash/internal/logger"
	"moocdash/internal/table"
)

// BatchSize: строк за один INSERT.
const BatchSize = 500

type Importer struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewImporter(db *gorm.DB, log *logger.Logger) *Importer {
	return &Importer{db: db, log: log, now: time.Now}
}

// Import заменяет набор name содержимым t в одной транзакции.
func (im *Importer) Import(ctx context.Context, name, file string, t *table.Table) (ImportRecord, error) {
	if _, ok := dataset.Lookup(name); !ok {
		return ImportRecord{}, fmt.Errorf("%w: %s", dataset.ErrUnknownDataset, name)
	}
	cols, err := json.Marshal(t.Columns)
	if err != nil {
		return ImportRecord{}, err
	}
	rec := ImportRecord{Dataset: name, File: file, Header: cols, RowCount: t.Len(), ImportedAt: im.now()}

	rows := make([]DatasetRow, 0, t.Len())
	for i, r := range t.Rows {
		cells, err := encodeRow(r)
		if err != nil {
			return ImportRecord{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, DatasetRow{Dataset: name, RowNum: i, Cells: cells})
	}

	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset = ?", name).Delete(&DatasetRow{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, BatchSize).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dataset"}},
			DoUpdates: clause.AssignmentColumns([]string{"file", "header", "row_count", "imported_at"}),
		}).Create(&rec).Error
	})
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import %s: %w", name, err)
	}
	im.log.Info("dataset imported", "dataset", name, "file", file, "rows", rec.RowCount, "cols", t.Width())
	return rec, nil
}

// Replace реализует dataset.Replacer.
func (im *Importer) Replace(ctx context.Context, spec dataset.Spec, t *table.Table) error {
	_, err := im.Import(ctx, spec.Name, spec.File, t)
	return err
}

// ImportCSVDir копирует все CSV-наборы каталога. Отсутствующие файлы пропускаются.
func (im *Importer) ImportCSVDir(ctx context.Context, src *dataset.CSVSource) ([]ImportRecord, error) {
	var out []ImportRecord
	for _, name := range dataset.Names() {
		spec, _ := dataset.Lookup(name)
		t, err := src.Load(ctx, spec)
		if err != nil {
			if errors.Is(err, dataset.ErrNotFound) {
				im.log.Warn("skip missing dataset file", "dataset", name, "path", src.Path(spec))
				continue
			}
			return out, err
		}
		rec, err := im.Import(ctx, name, spec.File, t)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
