package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"genrecast/internal/faults"
	"genrecast/internal/pipeline"
	"genrecast/internal/predict"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stage health and artifact presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			health := pipeline.NewManager(cfg, logger).Health(cmd.Context())
			rows := make([][]string, len(health))
			for i, h := range health {
				rows[i] = []string{h.Name, yesNo(h.Ready), h.Detail}
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Ready", "Detail"}, rows, nil))

			service := predict.NewService(cfg, logger)
			artifacts := service.Artifacts()
			rows = make([][]string, len(artifacts))
			for i, a := range artifacts {
				rows[i] = []string{a.Name, yesNo(a.Present), a.Path}
			}
			fmt.Fprintln(out, renderTable([]string{"Artifact", "Present", "Path"}, rows, nil))

			classes, err := service.Classes(cmd.Context())
			switch {
			case errors.Is(err, faults.ErrArtifactMissing):
				fmt.Fprintln(out, "Genres: not trained yet")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Genres: %s\n", strings.Join(classes, ", "))
			}
			return nil
		},
	}
}
