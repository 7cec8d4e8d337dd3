package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"genrecast/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return ctx.withRunLog(func(store *runlog.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runViews(runs))
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No training runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Stage", "Started", "Duration", "Train", "Test", "Accuracy", "Error"},
					runRows(runs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type runView struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	Stage        string   `json:"stage"`
	DatasetPath  string   `json:"dataset_path"`
	StartedAt    string   `json:"started_at"`
	FinishedAt   string   `json:"finished_at,omitempty"`
	TrainRows    int      `json:"train_rows"`
	TestRows     int      `json:"test_rows"`
	DroppedRows  int      `json:"dropped_rows"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	ErrorKind    string   `json:"error_kind,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func runViews(runs []runlog.Run) []runView {
	out := make([]runView, len(runs))
	for i, r := range runs {
		v := runView{
			ID:           r.ID,
			Status:       string(r.Status),
			Stage:        r.Stage,
			DatasetPath:  r.DatasetPath,
			StartedAt:    r.StartedAt.Format(time.RFC3339),
			TrainRows:    r.TrainRows,
			TestRows:     r.TestRows,
			DroppedRows:  r.DroppedRows,
			Accuracy:     r.Accuracy,
			ErrorKind:    r.ErrorKind,
			ErrorMessage: r.ErrorMessage,
		}
		if r.FinishedAt != nil {
			v.FinishedAt = r.FinishedAt.Format(time.RFC3339)
		}
		out[i] = v
	}
	return out
}

func runRows(runs []runlog.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		accuracy := "-"
		if r.Accuracy != nil {
			accuracy = strconv.FormatFloat(*r.Accuracy, 'f', 4, 64)
		}
		errText := r.ErrorKind
		if r.ErrorMessage != "" {
			errText += ": " + r.ErrorMessage
		}
		rows[i] = []string{
			id,
			string(r.Status),
			r.Stage,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Millisecond).String(),
			strconv.Itoa(r.TrainRows),
			strconv.Itoa(r.TestRows),
			accuracy,
			errText,
		}
	}
	return rows
}
