// Package testutil builds image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Tag is an ASCII IFD0 entry for BuildTIFF.
type Tag struct {
	ID    uint16
	Value string
}

const (
	TagMake     uint16 = 0x010F
	TagModel    uint16 = 0x0110
	TagSoftware uint16 = 0x0131
)

// Gradient returns a w×h image with enough detail for JPEG recompression to leave errors.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x*7 + y*13) % 256),
				A: 0xff,
			})
		}
	}
	return img
}

// Uniform returns a w×h image filled with c.
func Uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func JPEGBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

const TagExifIFDPointer uint16 = 0x8769

type ifdEntry struct {
	id    uint16
	typ   uint16
	count uint32
	value []byte
}

func asciiEntries(tags []Tag) []ifdEntry {
	entries := make([]ifdEntry, 0, len(tags))
	for _, tag := range tags {
		value := append([]byte(tag.Value), 0)
		entries = append(entries, ifdEntry{id: tag.ID, typ: 2, count: uint32(len(value)), value: value})
	}
	return entries
}

// encodeIFD lays out one IFD at offset, followed by the values that do not fit inline.
func encodeIFD(order binary.ByteOrder, offset int, entries []ifdEntry) []byte {
	dataOff := offset + 2 + 12*len(entries) + 4

	var ifd, data bytes.Buffer
	binary.Write(&ifd, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&ifd, order, e.id)
		binary.Write(&ifd, order, e.typ)
		binary.Write(&ifd, order, e.count)
		if len(e.value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.value)
			ifd.Write(inline)
			continue
		}
		binary.Write(&ifd, order, uint32(dataOff+data.Len()))
		data.Write(e.value)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	binary.Write(&ifd, order, uint32(0))

	return append(ifd.Bytes(), data.Bytes()...)
}

// BuildTIFF assembles a little-endian TIFF block holding a single IFD0 of ASCII tags.
// Tags must be given in ascending ID order.
func BuildTIFF(tags []Tag) []byte {
	return BuildTIFFWithExif(tags, nil)
}

// BuildTIFFWithExif is BuildTIFF plus an Exif sub-IFD of ASCII tags, linked from IFD0
// through an ExifIFDPointer entry. IFD0 tag IDs must sort below 0x8769.
func BuildTIFFWithExif(ifd0, exif []Tag) []byte {
	order := binary.LittleEndian
	entries := asciiEntries(ifd0)

	var exifDir []byte
	if len(exif) > 0 {
		pointer := make([]byte, 4)
		entries = append(entries, ifdEntry{id: TagExifIFDPointer, typ: 4, count: 1, value: pointer})
		exifOff := 8 + len(encodeIFD(order, 8, entries))
		order.PutUint32(pointer, uint32(exifOff))
		exifDir = encodeIFD(order, exifOff, asciiEntries(exif))
	}

	var out bytes.Buffer
	out.WriteString("II")
	binary.Write(&out, order, uint16(42))
	binary.Write(&out, order, uint32(8))
	out.Write(encodeIFD(order, 8, entries))
	out.Write(exifDir)
	return out.Bytes()
}

// WithExif inserts an APP1 Exif segment carrying tiffBlock right after the SOI marker.
func WithExif(jpegData, tiffBlock []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffBlock...)

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func WriteJPEG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	return WriteFile(t, dir, name, JPEGBytes(t, img))
}

// WriteExifJPEG writes a JPEG whose APP1 segment carries the given IFD0 tags.
func WriteExifJPEG(t *testing.T, dir, name string, img image.Image, tags []Tag) string {
	t.Helper()
	return WriteFile(t, dir, name, WithExif(JPEGBytes(t, img), BuildTIFF(tags)))
}

func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

func WriteTIFF(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

func WriteBMP(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	return WriteFile(t, dir, name, buf.Bytes())
}

// WriteBroken writes bytes that no image decoder accepts.
func WriteBroken(t *testing.T, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, []byte("this is not an image, just some text"))
}
