// Package track defines the audio-feature record shared by training and
// inference.
package track

// Column names as they appear in the raw dataset header.
const (
	ColDanceability     = "danceability"
	ColEnergy           = "energy"
	ColLoudness         = "loudness"
	ColSpeechiness      = "speechiness"
	ColAcousticness     = "acousticness"
	ColInstrumentalness = "instrumentalness"
	ColLiveness         = "liveness"
	ColValence          = "valence"
	ColTempo            = "tempo"
	ColKey              = "key"
	ColMode             = "mode"
	ColTimeSignature    = "time_signature"

	GenreColumn = "track_genre"
)

// NumericColumns lists the continuous features in canonical order.
var NumericColumns = []string{
	ColDanceability, ColEnergy, ColLoudness, ColSpeechiness, ColAcousticness,
	ColInstrumentalness, ColLiveness, ColValence, ColTempo,
}

// CategoricalColumns lists the discrete features in canonical order.
var CategoricalColumns = []string{ColKey, ColMode, ColTimeSignature}

// Features is one track's audio description.
type Features struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

// Record pairs features with the raw, unconsolidated genre string.
type Record struct {
	Features
	Genre string
}

// Numeric returns the continuous features ordered like NumericColumns.
func (f Features) Numeric() []float64 {
	return []float64{
		f.Danceability, f.Energy, f.Loudness, f.Speechiness, f.Acousticness,
		f.Instrumentalness, f.Liveness, f.Valence, f.Tempo,
	}
}

// Categorical returns the discrete features ordered like CategoricalColumns.
func (f Features) Categorical() []int {
	return []int{f.Key, f.Mode, f.TimeSignature}
}

// FeaturesOf strips the genre from each record.
func FeaturesOf(records []Record) []Features {
	out := make([]Features, len(records))
	for i, rec := range records {
		out[i] = rec.Features
	}
	return out
}
