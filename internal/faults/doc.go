// Package faults defines the closed set of error kinds surfaced by the
// training pipeline, the predictor and the front ends.
//
// Every stage failure is tagged with one sentinel kind plus the stage,
// operation and source location that produced it. Callers classify failures
// with errors.Is against the sentinels and pull structured context out with
// Details when logging or journaling a run.
package faults
