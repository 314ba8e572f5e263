package metadata

import (
	"errors"
	"fmt"
	"os"

	exif "github.com/dsoprea/go-exif/v3"
	"go.uber.org/zap"

	"imageforensics/internal/domain"
	"imageforensics/pkg/utils"
)

const ScanSource = "go-exif"

var ifdGroups = map[string]string{
	"IFD":          "Image",
	"IFD1":         "Thumbnail",
	"IFD/Exif":     "EXIF",
	"IFD/GPSInfo":  "GPS",
	"IFD/Exif/Iop": "Interoperability",
}

// ScanExtractor searches the raw file bytes for a TIFF header and flattens every IFD it
// reaches. It does not rely on the container structure.
type ScanExtractor struct {
	log *zap.Logger
}

func NewScanExtractor(log *zap.Logger) *ScanExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScanExtractor{log: log}
}

func (s *ScanExtractor) Extract(path string) (result domain.MetadataResult) {
	defer func() {
		if state := recover(); state != nil {
			result = domain.MetadataError(ScanSource, recovered("scan_extract", state))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MetadataError(ScanSource, domain.Wrap(domain.KindIO, "scan_extract", "", err))
	}

	if utils.DetectFormat(data) == "" {
		return domain.MetadataError(ScanSource, domain.New(domain.KindUnsupported, "scan_extract", "file format not recognized"))
	}

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return domain.NoMetadata(ScanSource, "No EXIF metadata found using go-exif.")
		}
		return domain.MetadataError(ScanSource, domain.Wrap(domain.KindDecode, "scan_extract", "", err))
	}

	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return domain.MetadataError(ScanSource, domain.Wrap(domain.KindDecode, "scan_extract", "", err))
	}

	tags := make(domain.MetadataMap, len(entries))
	for _, entry := range entries {
		if entry.ChildIfdPath != "" {
			continue
		}

		key := tagKey(entry.IfdPath, entry.TagName, entry.TagId)
		// IFD1 shares IFD0's path; a repeated IFD0 key therefore belongs to the thumbnail.
		if _, dup := tags[key]; dup && entry.IfdPath == "IFD" {
			key = tagKey("IFD1", entry.TagName, entry.TagId)
		}

		value := entry.Formatted
		if entry.UnitCount == 1 && entry.FormattedFirst != "" {
			value = entry.FormattedFirst
		}
		if value == "" && entry.Value != nil {
			value = fmt.Sprint(entry.Value)
		}
		tags[key] = value
	}

	if len(tags) == 0 {
		return domain.NoMetadata(ScanSource, "No EXIF metadata found using go-exif.")
	}

	s.log.Debug("EXIF scanned",
		zap.String("file", path),
		zap.Int("tags", len(tags)))

	return domain.NewMetadata(ScanSource, tags)
}

func tagKey(ifdPath, name string, id uint16) string {
	group, ok := ifdGroups[ifdPath]
	if !ok {
		group = ifdPath
	}
	if name == "" {
		return fmt.Sprintf("%s Tag 0x%04X", group, id)
	}
	return group + " " + name
}
