package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"consolenav/internal/gateway/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the navigation gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	if err := a.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server exiting")
	return nil
}
