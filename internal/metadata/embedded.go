package metadata

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.uber.org/zap"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"imageforensics/internal/domain"
)

const EmbeddedSource = "goexif"

// EmbeddedExtractor opens the image, finds the EXIF directory its container declares and
// decodes it with goexif.
type EmbeddedExtractor struct {
	log *zap.Logger
}

func NewEmbeddedExtractor(log *zap.Logger) *EmbeddedExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmbeddedExtractor{log: log}
}

func (e *EmbeddedExtractor) Extract(path string) (result domain.MetadataResult) {
	defer func() {
		if state := recover(); state != nil {
			result = domain.MetadataError(EmbeddedSource, recovered("embedded_extract", state))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MetadataError(EmbeddedSource, domain.Wrap(domain.KindIO, "embedded_extract", "", err))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.MetadataError(EmbeddedSource, domain.Wrap(domain.KindDecode, "embedded_extract", "", err))
	}

	block, err := locateExif(format, data)
	if err != nil {
		return domain.MetadataError(EmbeddedSource, domain.Wrap(domain.KindDecode, "embedded_extract", "", err))
	}
	if len(block) == 0 {
		return domain.NoMetadata(EmbeddedSource, "No EXIF metadata found using goexif.")
	}

	x, err := goexif.Decode(bytes.NewReader(block))
	if err != nil {
		if x == nil || goexif.IsCriticalError(err) {
			return domain.MetadataError(EmbeddedSource, domain.Wrap(domain.KindDecode, "embedded_extract", "", err))
		}
		e.log.Warn("Partial EXIF decode",
			zap.String("file", path),
			zap.Error(err))
	}

	w := &tagWalker{
		tags:   domain.MetadataMap{},
		seen:   map[*tiff.Tag]bool{},
		walked: map[string]bool{},
	}
	if err := x.Walk(w); err != nil {
		return domain.MetadataError(EmbeddedSource, domain.Wrap(domain.KindDecode, "embedded_extract", "", err))
	}

	// Tags goexif has no name for are reported by baseline name or raw identifier.
	if x.Tiff != nil && len(x.Tiff.Dirs) > 0 {
		for _, tag := range x.Tiff.Dirs[0].Tags {
			if w.seen[tag] {
				continue
			}
			name, ok := baselineTags[tag.Id]
			if !ok {
				name = fmt.Sprintf("0x%04X", tag.Id)
			}
			w.tags[name] = formatTag(tag)
		}
	}
	for _, sub := range subIFDGroups {
		dir, err := subDir(x, block, sub.pointer)
		if err != nil {
			e.log.Debug("Skipping unreadable sub-IFD",
				zap.String("file", path),
				zap.String("ifd", sub.group),
				zap.Error(err))
			continue
		}
		if dir == nil {
			continue
		}
		for _, tag := range dir.Tags {
			if w.walked[walkedKey(tag)] {
				continue
			}
			w.tags[fmt.Sprintf("%s 0x%04X", sub.group, tag.Id)] = formatTag(tag)
		}
	}

	if len(w.tags) == 0 {
		return domain.NoMetadata(EmbeddedSource, "No EXIF metadata found using goexif.")
	}

	return domain.NewMetadata(EmbeddedSource, w.tags)
}

// tagWalker collects named tags. walked matches them against sub-IFDs decoded a second
// time, whose *tiff.Tag values are new allocations.
type tagWalker struct {
	tags   domain.MetadataMap
	seen   map[*tiff.Tag]bool
	walked map[string]bool
}

func (w *tagWalker) Walk(name goexif.FieldName, tag *tiff.Tag) error {
	w.seen[tag] = true
	w.walked[walkedKey(tag)] = true
	w.tags[string(name)] = formatTag(tag)
	return nil
}

func formatTag(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimRight(s, "\x00 ")
		}
	}
	return tag.String()
}

func walkedKey(tag *tiff.Tag) string {
	return fmt.Sprintf("%04X:%x", tag.Id, tag.Val)
}

// subDir decodes the directory the pointer tag refers to, or returns nil when the file
// has no such pointer.
func subDir(x *goexif.Exif, block []byte, pointer goexif.FieldName) (*tiff.Dir, error) {
	if x.Tiff == nil {
		return nil, nil
	}
	tag, err := x.Get(pointer)
	if err != nil {
		return nil, nil
	}
	offset, err := tag.Int64(0)
	if err != nil {
		return nil, err
	}
	if offset <= 0 || offset >= int64(len(block)) {
		return nil, fmt.Errorf("%s offset %d out of range", pointer, offset)
	}

	r := bytes.NewReader(block)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	return dir, err
}
