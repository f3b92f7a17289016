package view

import (
	"context"
	"errors"

	"moocdash/internal/dataset"
)

// Getter: источник наборов для LoadData; *dataset.Store его реализует.
type Getter interface {
	Get(ctx context.Context, name string) (*dataset.Dataset, error)
}

// LoadData собирает все наборы страницы. Сбой чтения одного набора не
// останавливает остальные: набор остаётся nil, ошибки объединяются.
func LoadData(ctx context.Context, g Getter) (Data, error) {
	var d Data
	var errs []error
	get := func(name string) *dataset.Dataset {
		ds, err := g.Get(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return ds
	}
	d.Courses = get(dataset.Courses)
	d.Users = get(dataset.Users)
	d.Train = get(dataset.Train)
	d.Clean = get(dataset.Clean)
	for p := 1; p <= dataset.Phases; p++ {
		d.Predictions[p-1] = get(dataset.Prediction(p))
	}
	return d, errors.Join(errs...)
}
