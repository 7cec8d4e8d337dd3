package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"genrecast/internal/forest"
	"genrecast/internal/pipeline"
	"genrecast/internal/runlog"
)

func newTrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Ingest the dataset, fit the model and persist the artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withRunLog(func(journal *runlog.Store) error {
				manager := pipeline.NewManager(cfg, logger, pipeline.WithJournal(journal))
				run, err := manager.Run(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s completed\n", run.ID)
				fmt.Fprintf(out, "Train rows: %d  Test rows: %d  Dropped: %d\n", run.TrainRows, run.TestRows, run.Dropped)
				fmt.Fprintf(out, "Accuracy: %.4f\n", run.Accuracy)
				if run.Report != nil {
					fmt.Fprintln(out, run.Report.Render())
				}
				printTopFeatures(out, run.TopFeatures)
				return nil
			})
		},
	}
}

func printTopFeatures(out io.Writer, features []forest.FeatureImportance) {
	if len(features) == 0 {
		return
	}
	rows := make([][]string, len(features))
	for i, f := range features {
		rows[i] = []string{strconv.Itoa(i + 1), f.Feature, strconv.FormatFloat(f.Importance, 'f', 4, 64)}
	}
	fmt.Fprintln(out, "Top features:")
	fmt.Fprintln(out, renderTable([]string{"Rank", "Feature", "Importance"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
}
