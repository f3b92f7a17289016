package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// те же токены, что pandas read_csv считает NaN по умолчанию
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func IsNA(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

func ParseCell(s string) Cell {
	if IsNA(s) {
		return Null
	}
	return Str(s)
}

// ReadCSV читает CSV с заголовком в первой строке. Короткие записи
// дополняются null, лишние поля отбрасываются.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Empty(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	// в выгрузках pandas первая безымянная колонка: индекс
	if len(columns) > 0 && columns[0] == "" {
		columns[0] = "Unnamed: 0"
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", name, line, err)
		}
		row := make(Row, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return New(name, columns, rows), nil
}

// ReadCSVFile открывает файл; отсутствие файла возвращается как os.ErrNotExist.
func ReadCSVFile(name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(name, f)
}

// WriteCSV: обратная операция; null пишется пустой строкой.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i := range t.Columns {
			rec[i] = r.at(i).String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04",
}

// ParseTime пробует форматы, встречающиеся в выгрузках MOOCCubeX.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
