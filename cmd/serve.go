package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"imageforensics/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Sugar()
	ctx := cmd.Context()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		log.Errorf("Failed to create server: %v", err)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errCh:
		log.Errorf("Server failed: %v", err)
		return err
	}

	// Graceful shutdown with a timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
	return nil
}
