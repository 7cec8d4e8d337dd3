package preprocess

import (
	"errors"
	"fmt"
	"slices"
)

// OneHotEncoder expands each discrete column into one indicator per category
// seen during Fit.
type OneHotEncoder struct {
	Categories [][]int `json:"categories"`
}

// Fit records the sorted distinct values of each column.
func (e *OneHotEncoder) Fit(rows [][]int) error {
	if len(rows) == 0 {
		return errors.New("one-hot encoder: no rows to fit")
	}
	width := len(rows[0])
	seen := make([]map[int]struct{}, width)
	for j := range seen {
		seen[j] = make(map[int]struct{})
	}
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("one-hot encoder: row %d has %d values, want %d", i, len(row), width)
		}
		for j, v := range row {
			seen[j][v] = struct{}{}
		}
	}
	e.Categories = make([][]int, width)
	for j, set := range seen {
		cats := make([]int, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		slices.Sort(cats)
		e.Categories[j] = cats
	}
	return nil
}

// Width is the number of indicator columns produced.
func (e *OneHotEncoder) Width() int {
	total := 0
	for _, cats := range e.Categories {
		total += len(cats)
	}
	return total
}

// TransformInto writes indicators for src into dst, which must be Width long
// and zeroed. Unknown values leave their block at zero.
func (e *OneHotEncoder) TransformInto(dst []float64, src []int) error {
	if len(src) != len(e.Categories) {
		return fmt.Errorf("one-hot encoder: got %d values, fitted on %d", len(src), len(e.Categories))
	}
	offset := 0
	for j, cats := range e.Categories {
		if idx, ok := slices.BinarySearch(cats, src[j]); ok {
			dst[offset+idx] = 1
		}
		offset += len(cats)
	}
	return nil
}
