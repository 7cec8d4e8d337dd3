package forest

import (
	"fmt"
	"math"
	"runtime"
)

// Feature subset strategies for Params.MaxFeatures.
const (
	MaxFeaturesSqrt = "sqrt"
	MaxFeaturesLog2 = "log2"
	MaxFeaturesAll  = "all"
)

// Class weighting modes for Params.ClassWeight.
const (
	ClassWeightBalanced = "balanced"
	ClassWeightNone     = "none"
)

// Params holds forest hyperparameters.
type Params struct {
	Estimators      int    `json:"n_estimators"`
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf"`
	MaxFeatures     string `json:"max_features"`
	ClassWeight     string `json:"class_weight"`
	Seed            uint64 `json:"seed"`
	Workers         int    `json:"-"`
}

// DefaultParams mirrors the configuration defaults.
func DefaultParams() Params {
	return Params{
		Estimators:      100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     MaxFeaturesSqrt,
		ClassWeight:     ClassWeightBalanced,
		Seed:            42,
	}
}

func (p Params) validate() error {
	if p.Estimators < 1 {
		return fmt.Errorf("n_estimators must be positive, got %d", p.Estimators)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	}
	switch p.MaxFeatures {
	case MaxFeaturesSqrt, MaxFeaturesLog2, MaxFeaturesAll:
	default:
		return fmt.Errorf("unsupported max_features %q", p.MaxFeatures)
	}
	switch p.ClassWeight {
	case ClassWeightBalanced, ClassWeightNone:
	default:
		return fmt.Errorf("unsupported class_weight %q", p.ClassWeight)
	}
	return nil
}

// featuresPerSplit returns how many candidate features a split examines.
func (p Params) featuresPerSplit(numFeatures int) int {
	var m int
	switch p.MaxFeatures {
	case MaxFeaturesSqrt:
		m = int(math.Sqrt(float64(numFeatures)))
	case MaxFeaturesLog2:
		m = int(math.Log2(float64(numFeatures)))
	default:
		m = numFeatures
	}
	return min(max(m, 1), numFeatures)
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// classWeights returns the per-class sample weight for labels y.
// Balanced weights are n / (present classes * class count); absent classes
// get weight 0.
func classWeights(mode string, y []int, numClasses int) []float64 {
	weights := make([]float64, numClasses)
	if mode != ClassWeightBalanced {
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}
	counts := make([]int, numClasses)
	for _, label := range y {
		counts[label]++
	}
	present := 0
	for _, c := range counts {
		if c > 0 {
			present++
		}
	}
	n := float64(len(y))
	for i, c := range counts {
		if c > 0 {
			weights[i] = n / (float64(present) * float64(c))
		}
	}
	return weights
}
