package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"genrecast/internal/predict"
	"genrecast/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction form, dashboard and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}
			server := web.NewServer(bind, predict.NewService(cfg, logger), logger)
			return server.Serve(cmd.Context(), func(addr string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the configured listen address")
	return cmd
}
