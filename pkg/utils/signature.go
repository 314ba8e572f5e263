package utils

import "github.com/gabriel-vasile/mimetype"

var imageFormats = []struct {
	mime   string
	format string
}{
	{"image/jpeg", "jpeg"},
	{"image/png", "png"},
	{"image/tiff", "tiff"},
	{"image/bmp", "bmp"},
}

// DetectFormat identifies an image container from its leading bytes. It returns "" for
// anything it does not recognise. Subtypes such as APNG resolve to their parent format.
func DetectFormat(data []byte) string {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, f := range imageFormats {
			if m.Is(f.mime) {
				return f.format
			}
		}
	}
	return ""
}
