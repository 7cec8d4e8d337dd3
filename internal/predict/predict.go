// Package predict is the single inference entry point shared by the CLI and
// the web front ends.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"

	"genrecast/internal/artifact"
	"genrecast/internal/config"
	"genrecast/internal/faults"
	"genrecast/internal/forest"
	"genrecast/internal/logging"
	"genrecast/internal/preprocess"
	"genrecast/internal/track"
)

const component = "predict"

// ClassProbability is one genre's share of the forest vote.
type ClassProbability struct {
	Genre       string  `json:"genre"`
	Probability float64 `json:"probability"`
}

// Prediction is the decoded model output for one track.
type Prediction struct {
	Genre string `json:"genre"`
	// Confidence is the winning probability as a percentage in (0, 100].
	Confidence    float64            `json:"confidence"`
	Probabilities []ClassProbability `json:"probabilities"`
}

// Service loads the persisted artifacts and scores tracks.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewService constructs a prediction service over the configured artifacts.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, logger: logging.NewComponentLogger(logger, component)}
}

type bundle struct {
	pre     preprocess.Preprocessor
	encoder preprocess.LabelEncoder
	model   forest.Forest
}

// load reads all three artifacts from disk on every call.
func (s *Service) load() (*bundle, error) {
	var b bundle
	if err := artifact.Load(s.cfg.PreprocessorPath(), &b.pre); err != nil {
		return nil, err
	}
	if err := artifact.Load(s.cfg.LabelEncoderPath(), &b.encoder); err != nil {
		return nil, err
	}
	if err := artifact.Load(s.cfg.ModelPath(), &b.model); err != nil {
		return nil, err
	}
	return &b, nil
}

// Predict scores one track.
func (s *Service) Predict(ctx context.Context, features track.Features) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, faults.Wrap(faults.ErrModel, component, "predict", "Prediction canceled", err)
	}
	b, err := s.load()
	if err != nil {
		return Prediction{}, err
	}

	row, err := b.pre.Transform(features)
	if err != nil {
		return Prediction{}, faults.Wrap(faults.ErrModel, component, "transform", "Unable to transform input", err)
	}
	proba, err := b.model.PredictProba(row)
	if err != nil {
		return Prediction{}, faults.Wrap(faults.ErrModel, component, "predict", "Model rejected the input row", err)
	}
	classes := b.encoder.Classes()
	if len(proba) != len(classes) {
		return Prediction{}, faults.Wrap(faults.ErrModel, component, "decode", "Model and label encoder disagree",
			fmt.Errorf("model scores %d classes, label encoder has %d", len(proba), len(classes)))
	}

	best := floats.MaxIdx(proba)
	genre, err := b.encoder.Decode(best)
	if err != nil {
		return Prediction{}, faults.Wrap(faults.ErrModel, component, "decode", "Unable to decode prediction", err)
	}

	out := Prediction{
		Genre:         genre,
		Confidence:    proba[best] * 100,
		Probabilities: make([]ClassProbability, len(classes)),
	}
	for i, label := range classes {
		out.Probabilities[i] = ClassProbability{Genre: label, Probability: proba[i]}
	}
	sort.SliceStable(out.Probabilities, func(i, j int) bool {
		return out.Probabilities[i].Probability > out.Probabilities[j].Probability
	})

	s.logger.Debug("prediction made",
		logging.String("genre", out.Genre),
		logging.Float64("confidence", out.Confidence),
	)
	return out, nil
}

// Classes returns the genres the persisted label encoder knows.
func (s *Service) Classes(context.Context) ([]string, error) {
	var encoder preprocess.LabelEncoder
	if err := artifact.Load(s.cfg.LabelEncoderPath(), &encoder); err != nil {
		return nil, err
	}
	return encoder.Classes(), nil
}

// ArtifactState describes one persisted artifact.
type ArtifactState struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

// Artifacts reports which of the three artifacts are present on disk.
func (s *Service) Artifacts() []ArtifactState {
	paths := []struct{ name, path string }{
		{"preprocessor", s.cfg.PreprocessorPath()},
		{"label encoder", s.cfg.LabelEncoderPath()},
		{"model", s.cfg.ModelPath()},
	}
	out := make([]ArtifactState, len(paths))
	for i, p := range paths {
		out[i] = ArtifactState{Name: p.name, Path: p.path, Present: artifact.Exists(p.path)}
	}
	return out
}
