package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"imageforensics/internal/config"
	"imageforensics/internal/ela"
	"imageforensics/internal/metadata"
	"imageforensics/internal/repository"
)

// New assembles the forensics service from configuration.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (ForensicsService, error) {
	computer, err := ela.NewComputer(ela.Options{
		OutputDir: cfg.App.ELADir,
		Quality:   cfg.App.ELAQuality,
	}, log)
	if err != nil {
		return nil, err
	}

	var store repository.ArtifactStore
	if cfg.S3.Enabled {
		store, err = repository.NewS3Repository(ctx, &cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 repository: %w", err)
		}
	}

	return NewForensicsService(Options{
		Embedded:       metadata.NewEmbeddedExtractor(log),
		Scanned:        metadata.NewScanExtractor(log),
		ELA:            computer,
		Store:          store,
		AllowedFormats: cfg.App.AllowedFormats,
		AllowedRoots:   cfg.App.AllowedRoots,
	}, log), nil
}
