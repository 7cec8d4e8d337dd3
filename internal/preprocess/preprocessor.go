package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"genrecast/internal/track"
)

// Preprocessor is the fitted feature transformer persisted alongside the
// model.
type Preprocessor struct {
	Numeric     []string       `json:"numeric_columns"`
	Categorical []string       `json:"categorical_columns"`
	Scaler      StandardScaler `json:"scaler"`
	OneHot      OneHotEncoder  `json:"one_hot"`
}

// New returns an unfitted preprocessor over the canonical track columns.
func New() *Preprocessor {
	return &Preprocessor{
		Numeric:     append([]string(nil), track.NumericColumns...),
		Categorical: append([]string(nil), track.CategoricalColumns...),
	}
}

// Fit learns scaling statistics and category sets from training rows.
func (p *Preprocessor) Fit(rows []track.Features) error {
	if len(rows) == 0 {
		return errors.New("preprocessor: no rows to fit")
	}
	numeric := make([][]float64, len(rows))
	categorical := make([][]int, len(rows))
	for i, row := range rows {
		numeric[i] = row.Numeric()
		categorical[i] = row.Categorical()
	}
	if err := p.Scaler.Fit(numeric); err != nil {
		return err
	}
	return p.OneHot.Fit(categorical)
}

// Fitted reports whether Fit has completed.
func (p *Preprocessor) Fitted() bool {
	return p != nil && len(p.Scaler.Mean) > 0 && len(p.OneHot.Categories) > 0
}

// Width is the length of a transformed row.
func (p *Preprocessor) Width() int {
	return len(p.Scaler.Mean) + p.OneHot.Width()
}

// FeatureNames labels each output column, e.g. "tempo" or "key_5".
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	names = append(names, p.Numeric...)
	for j, cats := range p.OneHot.Categories {
		prefix := fmt.Sprintf("col%d", j)
		if j < len(p.Categorical) {
			prefix = p.Categorical[j]
		}
		for _, c := range cats {
			names = append(names, fmt.Sprintf("%s_%d", prefix, c))
		}
	}
	return names
}

// Transform converts one track into a model row.
func (p *Preprocessor) Transform(f track.Features) ([]float64, error) {
	out := make([]float64, p.Width())
	if err := p.transformInto(out, f); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformAll converts rows into a dense matrix, one track per row.
func (p *Preprocessor) TransformAll(rows []track.Features) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.New("preprocessor: no rows to transform")
	}
	width := p.Width()
	data := make([]float64, len(rows)*width)
	for i, row := range rows {
		if err := p.transformInto(data[i*width:(i+1)*width], row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return mat.NewDense(len(rows), width, data), nil
}

func (p *Preprocessor) transformInto(dst []float64, f track.Features) error {
	if !p.Fitted() {
		return errors.New("preprocessor: not fitted")
	}
	n := len(p.Scaler.Mean)
	if err := p.Scaler.TransformInto(dst[:n], f.Numeric()); err != nil {
		return err
	}
	return p.OneHot.TransformInto(dst[n:], f.Categorical())
}
