package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imageforensics/internal/config"
	"imageforensics/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "imageforensics",
	Short: "EXIF extraction and Error Level Analysis for folders of images",
	Long: "imageforensics reads EXIF metadata with two independent decoders and writes an\n" +
		"Error Level Analysis artifact for every supported image in a folder.\n\n" +
		"Without a subcommand it starts the HTTP server.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(submitCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every subcommand shares.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, nil
}
