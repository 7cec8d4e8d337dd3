// Package preprocess turns track features into the fixed-width numeric rows
// the forest consumes, and maps genre labels to class indices.
//
// The Preprocessor standardizes the continuous columns and one-hot encodes
// the discrete ones. Both halves are fitted on training data only; values
// seen for the first time at inference produce an all-zero block instead of
// an error, so the output width never changes after Fit.
package preprocess
