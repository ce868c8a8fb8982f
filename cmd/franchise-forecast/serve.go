package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/franchise-forecast/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the projection HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serverCfg, err := server.NewConfig(cfg.Server)
		if err != nil {
			return eris.Wrap(err, "server config")
		}
		if serveAddress != "" {
			serverCfg.Address = serveAddress
		}

		svc, closeStore, err := openService(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr:              serverCfg.Address,
			Handler:           server.NewHandler(logger, svc, serverCfg, version),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server", zap.String("op", "main.serve"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown failed", zap.String("op", "main.serve"), zap.Error(err))
			}
		}()

		logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", serverCfg.Address),
			zap.Int64("max_upload_bytes", serverCfg.UploadSizeBytes()),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
