package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"genrecast/internal/track"
)

// TrackInput is the request shape shared by the form and the JSON API.
// Pointers distinguish a missing field from a zero value.
type TrackInput struct {
	Danceability     *float64 `json:"danceability" validate:"required,gte=0,lte=1"`
	Energy           *float64 `json:"energy" validate:"required,gte=0,lte=1"`
	Loudness         *float64 `json:"loudness" validate:"required,gte=-60,lte=5"`
	Speechiness      *float64 `json:"speechiness" validate:"required,gte=0,lte=1"`
	Acousticness     *float64 `json:"acousticness" validate:"required,gte=0,lte=1"`
	Instrumentalness *float64 `json:"instrumentalness" validate:"required,gte=0,lte=1"`
	Liveness         *float64 `json:"liveness" validate:"required,gte=0,lte=1"`
	Valence          *float64 `json:"valence" validate:"required,gte=0,lte=1"`
	Tempo            *float64 `json:"tempo" validate:"required,gte=0,lte=250"`
	Key              *int     `json:"key" validate:"required,gte=0,lte=11"`
	Mode             *int     `json:"mode" validate:"required,oneof=0 1"`
	TimeSignature    *int     `json:"time_signature" validate:"required,gte=0,lte=7"`
}

// Features converts a validated input into model features.
func (in TrackInput) Features() track.Features {
	return track.Features{
		Danceability:     *in.Danceability,
		Energy:           *in.Energy,
		Loudness:         *in.Loudness,
		Speechiness:      *in.Speechiness,
		Acousticness:     *in.Acousticness,
		Instrumentalness: *in.Instrumentalness,
		Liveness:         *in.Liveness,
		Valence:          *in.Valence,
		Tempo:            *in.Tempo,
		Key:              *in.Key,
		Mode:             *in.Mode,
		TimeSignature:    *in.TimeSignature,
	}
}

// parseForm reads a TrackInput from submitted form values. Fields that are
// present but not numeric are reported in the returned map; empty fields are
// left nil for the validator to flag.
func parseForm(values url.Values) (TrackInput, map[string]string) {
	var in TrackInput
	problems := map[string]string{}
	floatField := func(name string) *float64 {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems[name] = fmt.Sprintf("%s must be a number", name)
			return nil
		}
		return &v
	}
	intField := func(name string) *int {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			problems[name] = fmt.Sprintf("%s must be a whole number", name)
			return nil
		}
		return &v
	}

	in.Danceability = floatField(track.ColDanceability)
	in.Energy = floatField(track.ColEnergy)
	in.Loudness = floatField(track.ColLoudness)
	in.Speechiness = floatField(track.ColSpeechiness)
	in.Acousticness = floatField(track.ColAcousticness)
	in.Instrumentalness = floatField(track.ColInstrumentalness)
	in.Liveness = floatField(track.ColLiveness)
	in.Valence = floatField(track.ColValence)
	in.Tempo = floatField(track.ColTempo)
	in.Key = intField(track.ColKey)
	in.Mode = intField(track.ColMode)
	in.TimeSignature = intField(track.ColTimeSignature)
	return in, problems
}
