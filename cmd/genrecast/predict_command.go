package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"genrecast/internal/predict"
	"genrecast/internal/web"
)

func newPredictCommand(ctx *commandContext) *cobra.Command {
	var (
		numeric = map[string]*float64{}
		ints    = map[string]*int{}
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the genre of one track",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			input := web.TrackInput{
				Danceability:     numeric["danceability"],
				Energy:           numeric["energy"],
				Loudness:         numeric["loudness"],
				Speechiness:      numeric["speechiness"],
				Acousticness:     numeric["acousticness"],
				Instrumentalness: numeric["instrumentalness"],
				Liveness:         numeric["liveness"],
				Valence:          numeric["valence"],
				Tempo:            numeric["tempo"],
				Key:              ints["key"],
				Mode:             ints["mode"],
				TimeSignature:    ints["time_signature"],
			}
			if problems := input.Validate(); len(problems) > 0 {
				return fmt.Errorf("invalid track: %s", joinProblems(problems))
			}

			prediction, err := predict.NewService(cfg, logger).Predict(cmd.Context(), input.Features())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, prediction)
			}
			printPrediction(cmd, prediction)
			return nil
		},
	}

	flags := cmd.Flags()
	title := cases.Title(language.English)
	for _, name := range []string{
		"danceability", "energy", "loudness", "speechiness", "acousticness",
		"instrumentalness", "liveness", "valence", "tempo",
	} {
		numeric[name] = flags.Float64(name, 0, title.String(name))
		_ = cmd.MarkFlagRequired(name)
	}
	ints["key"] = flags.Int("key", 0, "Key (0-11)")
	ints["mode"] = flags.Int("mode", 0, "Mode (0 minor, 1 major)")
	ints["time_signature"] = flags.Int("time-signature", 4, "Time signature")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("mode")
	flags.BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printPrediction(cmd *cobra.Command, p predict.Prediction) {
	out := cmd.OutOrStdout()
	writePrediction(out, p, isTerminal(out))
}

// writePrediction prints the headline and, on a terminal, the per-genre table.
func writePrediction(out io.Writer, p predict.Prediction, table bool) {
	fmt.Fprintf(out, "Predicted Genre: %s (%.1f%%)\n", p.Genre, p.Confidence)
	if !table {
		return
	}
	rows := make([][]string, 0, len(p.Probabilities))
	for _, cp := range p.Probabilities {
		rows = append(rows, []string{cp.Genre, fmt.Sprintf("%.1f%%", cp.Probability*100)})
	}
	fmt.Fprintln(out, renderTable([]string{"Genre", "Probability"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func joinProblems(problems map[string]string) string {
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = problems[k]
	}
	return strings.Join(msgs, "; ")
}
