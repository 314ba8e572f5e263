package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

type ImageProcessor struct {
	log *zap.Logger
}

func NewImageProcessor(log *zap.Logger) *ImageProcessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageProcessor{log: log}
}

// DecodeFile decodes any registered format (jpeg, png, tiff, bmp) and reports the format name.
func (p *ImageProcessor) DecodeFile(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", err
	}

	return img, format, nil
}

// ToRGB copies img into an opaque 8-bit RGB buffer. Alpha is discarded, not composited,
// so colour channels keep their straight (non-premultiplied) values.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := (y - b.Min.Y) * dst.Stride
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := row + (x-b.Min.X)*4
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}

	return dst
}

// CompressImage writes img as JPEG at the given quality to path.
func (p *ImageProcessor) CompressImage(img image.Image, path string, quality int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: quality}); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	p.log.Debug("Image compressed",
		zap.String("output", path),
		zap.Int("quality", quality))

	return nil
}

// SavePNG writes img to path through a uniquely named sibling file and a rename, so readers
// never observe a partially written artifact.
func (p *ImageProcessor) SavePNG(img image.Image, path string) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}

	p.log.Debug("Image saved", zap.String("output", path))

	return nil
}
