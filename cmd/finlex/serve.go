package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/internal/server"
)

func newServeCommand(cc *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, comp, logger, err := cc.loadComponents(ctx, cmd)
			if err != nil {
				return err
			}
			defer comp.Close()

			if addr != "" {
				cfg.Server.Addr = addr
			}
			srv := server.New(comp.Service, server.Options{
				Addr:            cfg.Server.Addr,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				MaxConcurrent:   cfg.Server.MaxConcurrent,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
				QueryTimeout:    time.Duration(cfg.Server.QueryTimeoutSeconds) * time.Second,
				ShutdownTimeout: time.Duration(cfg.Server.ShutdownSeconds) * time.Second,
				Logger:          logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
