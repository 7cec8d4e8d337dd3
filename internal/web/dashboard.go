package web

import "genrecast/internal/track"

// sliderField describes one dashboard control.
type sliderField struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Step    float64
	Default float64
	// Options, when set, renders a select instead of a slider.
	Options []int
}

type dashboardPage struct {
	Fields []sliderField
}

func sliderFields() []sliderField {
	return []sliderField{
		{Name: track.ColDanceability, Label: "Danceability", Max: 1, Step: 0.01, Default: 0.5},
		{Name: track.ColEnergy, Label: "Energy", Max: 1, Step: 0.01, Default: 0.5},
		{Name: track.ColLoudness, Label: "Loudness (dB)", Min: -60, Max: 0, Step: 0.5, Default: -10},
		{Name: track.ColSpeechiness, Label: "Speechiness", Max: 1, Step: 0.01, Default: 0.05},
		{Name: track.ColAcousticness, Label: "Acousticness", Max: 1, Step: 0.01, Default: 0.3},
		{Name: track.ColInstrumentalness, Label: "Instrumentalness", Max: 1, Step: 0.01, Default: 0},
		{Name: track.ColLiveness, Label: "Liveness", Max: 1, Step: 0.01, Default: 0.15},
		{Name: track.ColValence, Label: "Valence", Max: 1, Step: 0.01, Default: 0.5},
		{Name: track.ColTempo, Label: "Tempo (BPM)", Max: 250, Step: 1, Default: 120},
		{Name: track.ColKey, Label: "Key", Options: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, Default: 0},
		{Name: track.ColMode, Label: "Mode", Options: []int{0, 1}, Default: 1},
		{Name: track.ColTimeSignature, Label: "Time signature", Options: []int{1, 3, 4, 5}, Default: 4},
	}
}
