package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/app"
	"github.com/noah-isme/route-network-api/pkg/config"
	"github.com/noah-isme/route-network-api/pkg/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "flightops",
	Short: "Operator tooling for the route network",
	Long: `flightops runs route network operations directly against the flight database,
without going through the HTTP gateway.

  Generate flights from the active route templates:
    flightops generate --horizon 2024-02-01

  Print the flight board with compatibility labels:
    flightops health

  Export the board:
    flightops health --format pdf --out board.pdf

  Create or upgrade the database schema:
    flightops migrate

Connection settings are read from .env and the environment, as for the gateway.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// withApp loads configuration, wires the application and hands it to fn.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.NewCLI(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logr.Warn("close", zap.Error(err))
		}
	}()
	return fn(a)
}
