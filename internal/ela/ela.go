// Package ela implements Error Level Analysis: an image is recompressed once more as JPEG
// and the brightness-normalised difference is written out as a PNG artifact.
package ela

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"imageforensics/internal/domain"
	"imageforensics/pkg/utils"
)

const (
	DefaultOutputDir = "ela_results"
	DefaultQuality   = 90

	artifactSuffix = "_ela.png"
)

type Options struct {
	OutputDir string
	// Quality is the JPEG quality of the comparison copy. Lower values exaggerate
	// differences, higher values suppress them.
	Quality int
}

type Computer struct {
	proc    *utils.ImageProcessor
	dir     string
	quality int
	log     *zap.Logger
}

func NewComputer(opts Options, log *zap.Logger) (*Computer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return nil, fmt.Errorf("ela quality must be between 1 and 100, got %d", opts.Quality)
	}

	return &Computer{
		proc:    utils.NewImageProcessor(log),
		dir:     opts.OutputDir,
		quality: opts.Quality,
		log:     log,
	}, nil
}

func (c *Computer) OutputDir() string {
	return c.dir
}

func (c *Computer) Quality() int {
	return c.quality
}

// ArtifactPath is where Compute writes the artifact for the image at path.
func (c *Computer) ArtifactPath(path string) string {
	return filepath.Join(c.dir, baseName(path)+artifactSuffix)
}

// Compute runs ELA on the image at path. Failures are returned inside the result.
func (c *Computer) Compute(path string) (result domain.ELAResult) {
	defer func() {
		if state := recover(); state != nil {
			result = domain.ArtifactError(path, domain.New(domain.KindInternal, "ela", fmt.Sprint(state)))
		}
	}()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return domain.ArtifactError(path, domain.Wrap(domain.KindIO, "ela", "", err))
	}

	src, _, err := c.proc.DecodeFile(path)
	if err != nil {
		return domain.ArtifactError(path, domain.Wrap(kindFor(err), "ela", "", err))
	}
	original := utils.ToRGB(src)

	resaved, err := c.recompress(original, path)
	if err != nil {
		return domain.ArtifactError(path, domain.Wrap(domain.KindIO, "ela", "", err))
	}

	diff, maxDiff := Difference(original, resaved)
	Enhance(diff, ScaleFactor(maxDiff))

	out := c.ArtifactPath(path)
	if err := c.proc.SavePNG(diff, out); err != nil {
		return domain.ArtifactError(path, domain.Wrap(domain.KindIO, "ela", "", err))
	}

	c.log.Debug("ELA artifact written",
		zap.String("input", path),
		zap.String("output", out),
		zap.Uint8("max_diff", maxDiff),
		zap.Int("quality", c.quality))

	return domain.ArtifactPath(path, out)
}

// recompress round-trips img through a JPEG file that only this call knows the name of.
func (c *Computer) recompress(img *image.RGBA, path string) (*image.RGBA, error) {
	tmpPath := filepath.Join(c.dir, baseName(path)+"_"+uuid.NewString()+"_temp.jpg")
	defer os.Remove(tmpPath)

	if err := c.proc.CompressImage(img, tmpPath, c.quality); err != nil {
		return nil, fmt.Errorf("failed to write recompressed copy: %w", err)
	}

	resaved, _, err := c.proc.DecodeFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read recompressed copy: %w", err)
	}

	return utils.ToRGB(resaved), nil
}

// Difference returns the per-channel absolute difference of two equally sized RGB images
// and the largest channel difference found.
func Difference(a, b *image.RGBA) (*image.RGBA, uint8) {
	bounds := a.Bounds()
	out := image.NewRGBA(bounds)
	var maxDiff uint8

	for y := 0; y < bounds.Dy(); y++ {
		ai := y * a.Stride
		bi := y * b.Stride
		oi := y * out.Stride
		for x := 0; x < bounds.Dx(); x++ {
			for ch := 0; ch < 3; ch++ {
				d := absDiff(a.Pix[ai+ch], b.Pix[bi+ch])
				out.Pix[oi+ch] = d
				if d > maxDiff {
					maxDiff = d
				}
			}
			out.Pix[oi+3] = 0xff
			ai += 4
			bi += 4
			oi += 4
		}
	}

	return out, maxDiff
}

// ScaleFactor maps the largest difference to full brightness. An image that survives
// recompression unchanged gets a factor of 1.
func ScaleFactor(maxDiff uint8) float64 {
	if maxDiff == 0 {
		return 1
	}
	return 255.0 / float64(maxDiff)
}

// Enhance multiplies every colour channel by factor, truncating and clamping to 255.
func Enhance(img *image.RGBA, factor float64) {
	for i := 0; i < len(img.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := float64(img.Pix[i+ch]) * factor
			if v > 255 {
				v = 255
			}
			img.Pix[i+ch] = uint8(v)
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func kindFor(err error) domain.Kind {
	if os.IsNotExist(err) || os.IsPermission(err) {
		return domain.KindIO
	}
	if err == image.ErrFormat {
		return domain.KindUnsupported
	}
	return domain.KindDecode
}
