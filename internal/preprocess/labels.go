package preprocess

import (
	"errors"
	"fmt"
	"slices"
)

// LabelEncoder maps genre strings to dense class indices in sorted order.
type LabelEncoder struct {
	Labels []string `json:"classes"`
}

// Fit records the sorted distinct labels.
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.New("label encoder: no labels to fit")
	}
	distinct := slices.Clone(labels)
	slices.Sort(distinct)
	e.Labels = slices.Compact(distinct)
	return nil
}

// Classes returns the known labels; index i is class i.
func (e *LabelEncoder) Classes() []string {
	return slices.Clone(e.Labels)
}

// Encode returns the class index for label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	idx, ok := slices.BinarySearch(e.Labels, label)
	if !ok {
		return 0, fmt.Errorf("label encoder: unknown label %q", label)
	}
	return idx, nil
}

// EncodeAll encodes every label, failing on the first unknown one.
func (e *LabelEncoder) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, label := range labels {
		idx, err := e.Encode(label)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Decode returns the label for a class index.
func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.Labels) {
		return "", fmt.Errorf("label encoder: class index %d out of range [0,%d)", idx, len(e.Labels))
	}
	return e.Labels[idx], nil
}
