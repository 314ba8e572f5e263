package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	exifHeader   = []byte("Exif\x00\x00")
	pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// locateExif returns the TIFF-structured EXIF block embedded in data, or nil when the
// container has none. format is the name reported by image.DecodeConfig.
func locateExif(format string, data []byte) ([]byte, error) {
	switch format {
	case "jpeg":
		return jpegExif(data)
	case "png":
		return pngExif(data)
	case "tiff":
		return data, nil
	default:
		return nil, nil
	}
}

// jpegExif walks the marker segments that precede the first scan looking for an APP1 Exif block.
func jpegExif(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("missing JPEG SOI marker")
	}

	i := 2
	for i+2 <= len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("invalid JPEG marker at offset %d", i)
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			// fill byte
			i++
			continue
		case marker == 0xDA || marker == 0xD9:
			return nil, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			i += 2
			continue
		}

		if i+4 > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment at offset %d", i)
		}
		size := int(binary.BigEndian.Uint16(data[i+2:]))
		if size < 2 || i+2+size > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment at offset %d", i)
		}

		payload := data[i+4 : i+2+size]
		if marker == 0xE1 && bytes.HasPrefix(payload, exifHeader) {
			return payload[len(exifHeader):], nil
		}
		i += 2 + size
	}

	return nil, nil
}

// pngExif returns the body of the eXIf chunk, if any.
func pngExif(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, errors.New("missing PNG signature")
	}

	i := len(pngSignature)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i:]))
		kind := string(data[i+4 : i+8])
		end := i + 8 + length + 4
		if end > len(data) {
			return nil, fmt.Errorf("truncated PNG chunk %q at offset %d", kind, i)
		}

		switch kind {
		case "eXIf":
			return bytes.TrimPrefix(data[i+8:i+8+length], exifHeader), nil
		case "IEND":
			return nil, nil
		}
		i = end
	}

	return nil, nil
}
