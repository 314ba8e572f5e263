package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"imageforensics/internal/domain"
	"imageforensics/internal/metadata"
	"imageforensics/internal/repository"
)

var DefaultFormats = []string{".jpg", ".jpeg", ".png", ".tiff", ".bmp"}

type ForensicsService interface {
	ProcessFolder(ctx context.Context, folderPath string) ([]domain.FolderResult, error)
}

// ArtifactComputer produces the ELA artifact for one image.
type ArtifactComputer interface {
	Compute(path string) domain.ELAResult
}

type Options struct {
	Embedded metadata.Extractor
	Scanned  metadata.Extractor
	ELA      ArtifactComputer
	// Store is optional; when nil artifacts stay on local disk only.
	Store repository.ArtifactStore

	AllowedFormats []string
	AllowedRoots   []string
}

type forensicsService struct {
	embedded metadata.Extractor
	scanned  metadata.Extractor
	ela      ArtifactComputer
	store    repository.ArtifactStore
	formats  []string
	roots    []string
	log      *zap.Logger
}

func NewForensicsService(opts Options, log *zap.Logger) ForensicsService {
	if log == nil {
		log = zap.NewNop()
	}

	formats := make([]string, 0, len(opts.AllowedFormats))
	for _, f := range opts.AllowedFormats {
		formats = append(formats, strings.ToLower(f))
	}
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	return &forensicsService{
		embedded: opts.Embedded,
		scanned:  opts.Scanned,
		ela:      opts.ELA,
		store:    opts.Store,
		formats:  formats,
		roots:    opts.AllowedRoots,
		log:      log,
	}
}

func (s *forensicsService) ProcessFolder(ctx context.Context, folderPath string) ([]domain.FolderResult, error) {
	folder, err := s.resolveFolder(folderPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, "process_folder", "failed to list folder", err)
	}

	batchID := uuid.NewString()
	s.log.Info("Starting folder processing",
		zap.String("batch_id", batchID),
		zap.String("folder", folder),
		zap.Int("entries", len(entries)))

	results := make([]domain.FolderResult, 0)
	for _, entry := range entries {
		if entry.IsDir() || !s.isSupported(entry.Name()) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("folder processing interrupted: %w", err)
		}

		record := domain.ImageRecord{
			Name: entry.Name(),
			Path: filepath.Join(folder, entry.Name()),
		}
		results = append(results, s.processImage(ctx, batchID, record))
	}

	s.log.Info("Folder processed",
		zap.String("batch_id", batchID),
		zap.String("folder", folder),
		zap.Int("images", len(results)))

	return results, nil
}

func (s *forensicsService) processImage(ctx context.Context, batchID string, record domain.ImageRecord) domain.FolderResult {
	result := domain.FolderResult{
		Image:    record,
		Embedded: s.embedded.Extract(record.Path),
		Scanned:  s.scanned.Extract(record.Path),
		ELA:      s.ela.Compute(record.Path),
	}

	for _, step := range []struct {
		field string
		err   *domain.Error
	}{
		{"metadata_pil", result.Embedded.Err},
		{"metadata_exifread", result.Scanned.Err},
		{"ela_image_path", result.ELA.Err},
	} {
		if step.err != nil {
			s.log.Warn("Image step failed",
				zap.String("batch_id", batchID),
				zap.String("file", record.Name),
				zap.String("field", step.field),
				zap.String("kind", string(step.err.Kind)),
				zap.Error(step.err))
		}
	}

	if s.store != nil && !result.ELA.Failed() {
		key := s.store.Key(batchID, filepath.Base(result.ELA.Path))
		if err := s.store.UploadArtifact(ctx, key, result.ELA.Path); err != nil {
			s.log.Warn("Failed to mirror artifact",
				zap.String("batch_id", batchID),
				zap.String("file", record.Name),
				zap.Error(err))
		} else {
			result.ObjectKey = key
		}
	}

	return result
}

func (s *forensicsService) isSupported(name string) bool {
	return slices.Contains(s.formats, strings.ToLower(filepath.Ext(name)))
}

// resolveFolder checks that folderPath is an existing directory and, when roots are
// configured, that its canonical location lies under one of them.
func (s *forensicsService) resolveFolder(folderPath string) (string, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrFolderNotFound
		}
		return "", domain.Wrap(domain.KindIO, "process_folder", "failed to stat folder", err)
	}
	if !info.IsDir() {
		return "", domain.ErrFolderNotFound
	}

	if len(s.roots) == 0 {
		return folderPath, nil
	}

	canonical, err := canonicalize(folderPath)
	if err != nil {
		return "", domain.Wrap(domain.KindIO, "process_folder", "failed to resolve folder", err)
	}

	for _, root := range s.roots {
		canonicalRoot, err := canonicalize(root)
		if err != nil {
			s.log.Warn("Skipping unresolvable allowed root", zap.String("root", root), zap.Error(err))
			continue
		}
		if within(canonicalRoot, canonical) {
			return canonical, nil
		}
	}

	return "", domain.ErrFolderNotAllowed
}

func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
