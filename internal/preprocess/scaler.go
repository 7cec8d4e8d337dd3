package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers columns on their mean and divides by the
// population standard deviation.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit computes per-column statistics from rows. A column with zero variance
// keeps a scale of 1 so it transforms to zero rather than NaN.
func (s *StandardScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("standard scaler: no rows to fit")
	}
	width := len(rows[0])
	s.Mean = make([]float64, width)
	s.Scale = make([]float64, width)
	column := make([]float64, len(rows))
	for j := range width {
		for i, row := range rows {
			if len(row) != width {
				return fmt.Errorf("standard scaler: row %d has %d values, want %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		s.Mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
	return nil
}

// TransformInto writes the standardized values of src into dst.
func (s *StandardScaler) TransformInto(dst, src []float64) error {
	if len(src) != len(s.Mean) || len(dst) != len(s.Mean) {
		return fmt.Errorf("standard scaler: got %d values, fitted on %d", len(src), len(s.Mean))
	}
	copy(dst, src)
	floats.Sub(dst, s.Mean)
	floats.Div(dst, s.Scale)
	return nil
}
