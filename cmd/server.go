/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/quicktech-sms/portal/config"
	"github.com/quicktech-sms/portal/internal/server"
	"github.com/quicktech-sms/portal/internal/telemetry"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the local portal authority",
	Long: `Starts an in-memory implementation of the portal API with seeded
accounts, for development and demos. Usage:

	JWT_SECRET=dev portal server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if rootFlags.logLevel != "" {
			cfg.LogLevel = rootFlags.logLevel
		}
		logger := newCommandLogger(cfg.LogLevel).With("component", "authority")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry, "portal-authority", logger)
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTelemetry(flushCtx)
		}()

		srv, err := server.New(ctx, cfg.Authority, server.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", srv.Addr())
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
