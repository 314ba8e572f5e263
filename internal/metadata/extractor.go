// Package metadata reads EXIF tags from image files with two independent decoders.
//
// The decoders are deliberately not reconciled: they disagree on malformed files, and the
// disagreement itself is useful to an examiner.
package metadata

import (
	"fmt"

	"imageforensics/internal/domain"
)

// Extractor reads EXIF metadata from an image file. Failures are carried in the result,
// never returned or panicked.
type Extractor interface {
	Extract(path string) domain.MetadataResult
}

func recovered(op string, state any) *domain.Error {
	if err, ok := state.(error); ok {
		return domain.Wrap(domain.KindInternal, op, "decoder panic", err)
	}
	return domain.New(domain.KindInternal, op, fmt.Sprintf("decoder panic: %v", state))
}
