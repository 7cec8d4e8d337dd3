package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Forest is a fitted random-forest classifier.
type Forest struct {
	NumFeatures int       `json:"num_features"`
	NumClasses  int       `json:"num_classes"`
	Params      Params    `json:"params"`
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"feature_importances"`
}

// Fit grows params.Estimators trees on the rows of x labeled by y, where
// every label is in [0, numClasses).
func Fit(ctx context.Context, x mat.Matrix, y []int, numClasses int, params Params) (*Forest, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.New("empty training matrix")
	}
	if len(y) != rows {
		return nil, fmt.Errorf("got %d labels for %d rows", len(y), rows)
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("numClasses must be positive, got %d", numClasses)
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("label %d at row %d outside [0,%d)", label, i, numClasses)
		}
	}

	features := make([][]float64, cols)
	for j := range cols {
		features[j] = mat.Col(nil, j, x)
	}
	weights := classWeights(params.ClassWeight, y, numClasses)

	trees := make([]Tree, params.Estimators)
	treeImportances := make([][]float64, params.Estimators)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(params.workers())
	for t := range params.Estimators {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(params.Seed, uint64(t)))
			trees[t], treeImportances[t] = growTree(features, y, weights, numClasses, params, rng)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &Forest{
		NumFeatures: cols,
		NumClasses:  numClasses,
		Params:      params,
		Trees:       trees,
		Importances: averageImportances(treeImportances, cols),
	}, nil
}

// averageImportances normalizes each tree's impurity decrease, averages
// across trees and renormalizes so the result sums to 1.
func averageImportances(perTree [][]float64, width int) []float64 {
	out := make([]float64, width)
	for _, imp := range perTree {
		sum := floats.Sum(imp)
		if sum <= 0 {
			continue
		}
		floats.AddScaled(out, 1/sum, imp)
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}

// FeatureImportance pairs a feature name with its share of the impurity
// decrease.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopFeatures labels the importances with names and returns the n largest,
// most important first. n <= 0 returns all of them.
func (f *Forest) TopFeatures(names []string, n int) ([]FeatureImportance, error) {
	if len(names) != len(f.Importances) {
		return nil, fmt.Errorf("got %d feature names for %d importances", len(names), len(f.Importances))
	}
	ranked := make([]FeatureImportance, len(names))
	for i, name := range names {
		ranked[i] = FeatureImportance{Feature: name, Importance: f.Importances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// PredictProba returns the class distribution for one transformed row,
// averaged over all trees.
func (f *Forest) PredictProba(row []float64) ([]float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return nil, errors.New("forest is not fitted")
	}
	if len(row) != f.NumFeatures {
		return nil, fmt.Errorf("row has %d features, model expects %d", len(row), f.NumFeatures)
	}
	proba := make([]float64, f.NumClasses)
	for i := range f.Trees {
		floats.Add(proba, f.Trees[i].leafValue(row))
	}
	floats.Scale(1/float64(len(f.Trees)), proba)
	return proba, nil
}

// Predict returns the most probable class index for one transformed row.
// Ties resolve to the lowest index.
func (f *Forest) Predict(row []float64) (int, error) {
	proba, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

// PredictAll predicts every row of x.
func (f *Forest) PredictAll(x mat.Matrix) ([]int, error) {
	rows, _ := x.Dims()
	out := make([]int, rows)
	for i := range rows {
		label, err := f.Predict(mat.Row(nil, i, x))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

// MeanDepth reports the average tree depth, useful in training logs.
func (f *Forest) MeanDepth() float64 {
	if f == nil || len(f.Trees) == 0 {
		return 0
	}
	total := 0
	for i := range f.Trees {
		total += f.Trees[i].Depth()
	}
	return float64(total) / float64(len(f.Trees))
}
