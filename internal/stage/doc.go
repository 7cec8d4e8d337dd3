// Package stage defines the contract shared by the training pipeline stages
// and the run state passed between them.
package stage
