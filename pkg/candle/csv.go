package candle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
)

var (
	// ErrEmptyFile is returned when the CSV contains no data rows.
	ErrEmptyFile = errors.New("csv contains no data rows")
	// ErrNoColumns is returned when a data row has no columns.
	ErrNoColumns = errors.New("csv row has no columns")
)

// LoadCSV reads an all-float CSV with a header row and returns its data rows.
// Column 0 is treated as the price everywhere downstream.
func LoadCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	// records[0] is the header
	rows := make([][]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) == 0 {
			return nil, fmt.Errorf("row %d: %w", i+2, ErrNoColumns)
		}
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: parse %q: %w", i+2, j, cell, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteSeriesCSV writes the reconstructed real and predicted price series
// side by side, one row per test window.
func WriteSeriesCSV(path string, real, predicted []float64) error {
	if len(real) != len(predicted) {
		return fmt.Errorf("series length mismatch: %d real vs %d predicted", len(real), len(predicted))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "real_price", "predicted_price"}); err != nil {
		return err
	}
	for i := range real {
		rec := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(real[i], 'f', -1, 64),
			strconv.FormatFloat(predicted[i], 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
