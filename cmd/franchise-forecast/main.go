package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/config"
	"github.com/iwvelando/franchise-forecast/internal/projection"
	"github.com/iwvelando/franchise-forecast/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg    *config.Config
	logger = zap.NewNop()

	configLocation string
	envFile        string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "franchise-forecast",
	Short: "Five-year financial projections for franchise locations",
	Long: "Projects monthly and annual P&L, balance sheet, cash flow, and return metrics " +
		"for a franchise location from brand defaults and per-plan edits.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		c, err := config.Load(configLocation)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		l, err := config.InitLogger(cfg.Logging, logLevel)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configLocation, "config", "", "path to configuration file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to a .env file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// openService opens the configured store and returns a service backed by it.
// The returned function closes the store.
func openService(ctx context.Context) (*projection.Service, func(), error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close store", zap.String("op", "main.openService"), zap.Error(err))
		}
	}
	return projection.NewService(st, logger), closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
