// Package config loads, normalizes, and validates genrecast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GENRECAST_DATASET. The Config type centralizes every knob the training
// pipeline, the predictor and the web front ends need, and derives the fixed
// artifact file locations from the configured artifacts directory.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
