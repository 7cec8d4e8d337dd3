// Package pipeline runs a training run through its stages.
//
// The Manager takes an exclusive lock on the artifacts directory, assigns the
// run an id, checks every stage's health, then executes ingestion,
// transformation and training strictly in order. The first failing stage
// aborts the run; its error is logged with its kind and origin, journaled and
// returned unchanged to the caller.
//
// Progress is mirrored into the run journal when one is configured, so
// `genrecast runs` can show what happened after the process exits.
package pipeline
