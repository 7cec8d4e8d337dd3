package testsupport

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	"genrecast/internal/dataset"
	"genrecast/internal/track"
)

// SyntheticGenres are the raw genres WriteDataset emits. "sleep" consolidates
// to Other and is dropped during transformation.
var SyntheticGenres = []string{"punk-rock", "opera", "hip-hop", "techno", "sleep"}

// SyntheticLabels are the consolidated classes a model trained on
// WriteDataset output knows, in encoder order.
var SyntheticLabels = []string{"Classical", "Electronic", "Hip-Hop", "Rock"}

type profile struct {
	dance, energy, loudness, acoustic, tempo float64
}

var profiles = map[string]profile{
	"punk-rock": {0.45, 0.95, -4, 0.02, 175},
	"opera":     {0.20, 0.15, -22, 0.95, 80},
	"hip-hop":   {0.85, 0.65, -6, 0.15, 95},
	"techno":    {0.70, 0.90, -8, 0.01, 130},
	"sleep":     {0.10, 0.05, -35, 0.90, 60},
}

// DatasetHeader mirrors the column layout of the public Spotify tracks dump,
// trimmed to a few descriptive columns plus every model column.
var DatasetHeader = []string{
	"track_id", "track_name", "popularity",
	track.ColDanceability, track.ColEnergy, track.ColKey, track.ColLoudness, track.ColMode,
	track.ColSpeechiness, track.ColAcousticness, track.ColInstrumentalness, track.ColLiveness,
	track.ColValence, track.ColTempo, track.ColTimeSignature, track.GenreColumn,
}

// WriteDataset writes a deterministic, well separated dataset with perGenre
// rows for each of SyntheticGenres.
func WriteDataset(t testing.TB, path string, perGenre int) {
	t.Helper()

	rng := rand.New(rand.NewPCG(2024, 7))
	jitter := func(scale float64) float64 { return (rng.Float64() - 0.5) * scale }
	frame := &dataset.Frame{Header: DatasetHeader}
	for _, genre := range SyntheticGenres {
		p := profiles[genre]
		for i := range perGenre {
			row := []string{
				fmt.Sprintf("%s-%03d", genre, i),
				fmt.Sprintf("Song, Part %d", i),
				strconv.Itoa(rng.IntN(100)),
				ff(clamp01(p.dance + jitter(0.1))),
				ff(clamp01(p.energy + jitter(0.1))),
				strconv.Itoa(rng.IntN(12)),
				ff(p.loudness + jitter(2)),
				strconv.Itoa(rng.IntN(2)),
				ff(clamp01(0.05 + jitter(0.05))),
				ff(clamp01(p.acoustic + jitter(0.04))),
				ff(clamp01(rng.Float64() * 0.1)),
				ff(clamp01(0.15 + jitter(0.1))),
				ff(clamp01(0.5 + jitter(0.6))),
				ff(p.tempo + jitter(10)),
				strconv.Itoa(3 + rng.IntN(2)),
				genre,
			}
			frame.Rows = append(frame.Rows, row)
		}
	}
	if err := dataset.WriteFrame(path, frame); err != nil {
		t.Fatalf("write dataset %s: %v", path, err)
	}
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
