package metadata

import (
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imageforensics/internal/domain"
	"imageforensics/internal/testutil"
)

var cameraTags = []testutil.Tag{
	{ID: testutil.TagMake, Value: "TestCam"},
	{ID: testutil.TagModel, Value: "Model X100"},
	{ID: testutil.TagSoftware, Value: "fixture-writer"},
}

func extractors() map[string]Extractor {
	return map[string]Extractor{
		EmbeddedSource: NewEmbeddedExtractor(nil),
		ScanSource:     NewScanExtractor(nil),
	}
}

func TestExtract_NoExif(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"jpeg": testutil.WriteJPEG(t, dir, "plain.jpg", testutil.Gradient(32, 32)),
		"png":  testutil.WritePNG(t, dir, "plain.png", testutil.Gradient(32, 32)),
		"bmp":  testutil.WriteBMP(t, dir, "plain.bmp", testutil.Uniform(8, 8, color.RGBA{10, 20, 30, 255})),
	}

	for source, ex := range extractors() {
		for format, path := range files {
			t.Run(source+"/"+format, func(t *testing.T) {
				result := ex.Extract(path)
				require.False(t, result.Failed(), "unexpected error: %v", result.Err)

				m := result.Map()
				require.Len(t, m, 1)
				assert.Contains(t, m, domain.InfoKey)
				assert.NotContains(t, m, domain.ErrorKey)
				assert.Contains(t, m[domain.InfoKey], source)
			})
		}
	}
}

func TestEmbeddedExtractor_ResolvesTagNames(t *testing.T) {
	path := testutil.WriteExifJPEG(t, t.TempDir(), "camera.jpg", testutil.Gradient(32, 32), cameraTags)

	result := NewEmbeddedExtractor(nil).Extract(path)
	require.False(t, result.Failed(), "unexpected error: %v", result.Err)

	m := result.Map()
	assert.Equal(t, "TestCam", m["Make"])
	assert.Equal(t, "Model X100", m["Model"])
	assert.Equal(t, "fixture-writer", m["Software"])
	for key := range m {
		assert.False(t, strings.HasPrefix(key, "0x"), "tag %q was not resolved to a name", key)
	}
}

func TestEmbeddedExtractor_ResolvesBaselineTIFFTags(t *testing.T) {
	path := testutil.WriteTIFF(t, t.TempDir(), "scan.tiff", testutil.Gradient(16, 16))

	result := NewEmbeddedExtractor(nil).Extract(path)
	require.False(t, result.Failed(), "unexpected error: %v", result.Err)

	m := result.Map()
	assert.Equal(t, "16", m["ImageWidth"])
	assert.Contains(t, m, "StripOffsets")
	assert.Contains(t, m, "RowsPerStrip")
	assert.Contains(t, m, "StripByteCounts")
	for key := range m {
		assert.False(t, strings.HasPrefix(key, "0x"), "tag %q was not resolved to a name", key)
	}
}

func TestEmbeddedExtractor_ReportsUnknownTags(t *testing.T) {
	ifd0 := append(append([]testutil.Tag{}, cameraTags...), testutil.Tag{ID: 0x8000, Value: "vendor"})
	exifTags := []testutil.Tag{
		{ID: 0x9003, Value: "2024:01:02 03:04:05"},
		{ID: 0x9999, Value: "hidden"},
	}
	data := testutil.WithExif(testutil.JPEGBytes(t, testutil.Gradient(16, 16)), testutil.BuildTIFFWithExif(ifd0, exifTags))
	path := testutil.WriteFile(t, t.TempDir(), "vendor.jpg", data)

	result := NewEmbeddedExtractor(nil).Extract(path)
	require.False(t, result.Failed(), "unexpected error: %v", result.Err)

	m := result.Map()
	assert.Equal(t, "TestCam", m["Make"])
	assert.Equal(t, "2024:01:02 03:04:05", m["DateTimeOriginal"])
	assert.Equal(t, "vendor", m["0x8000"])
	assert.Equal(t, "hidden", m["EXIF 0x9999"])
	assert.NotContains(t, m, "EXIF 0x9003")
}

func TestScanExtractor_ResolvesTagNames(t *testing.T) {
	path := testutil.WriteExifJPEG(t, t.TempDir(), "camera.jpg", testutil.Gradient(32, 32), cameraTags)

	result := NewScanExtractor(nil).Extract(path)
	require.False(t, result.Failed(), "unexpected error: %v", result.Err)

	m := result.Map()
	assert.Contains(t, m["Image Make"], "TestCam")
	assert.Contains(t, m["Image Model"], "Model X100")
	for key := range m {
		assert.NotContains(t, key, "Tag 0x", "tag %q was not resolved to a name", key)
	}
}

func TestScanExtractor_SingleValuesAreScalars(t *testing.T) {
	path := testutil.WriteTIFF(t, t.TempDir(), "scan.tiff", testutil.Gradient(16, 16))

	result := NewScanExtractor(nil).Extract(path)
	require.False(t, result.Failed(), "unexpected error: %v", result.Err)

	m := result.Map()
	assert.Equal(t, "16", m["Image ImageWidth"])
	assert.Equal(t, "16", m["Image ImageLength"])
	assert.Equal(t, m["Image RowsPerStrip"], NewEmbeddedExtractor(nil).Extract(path).Map()["RowsPerStrip"])
}

func TestExtract_CorruptFile(t *testing.T) {
	path := testutil.WriteBroken(t, t.TempDir(), "broken.jpg")

	for source, ex := range extractors() {
		t.Run(source, func(t *testing.T) {
			result := ex.Extract(path)
			require.True(t, result.Failed())

			m := result.Map()
			require.Len(t, m, 1)
			assert.Contains(t, m[domain.ErrorKey], "Error reading image with "+source)
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	for source, ex := range extractors() {
		t.Run(source, func(t *testing.T) {
			result := ex.Extract("/definitely/not/here.jpg")
			require.True(t, result.Failed())
			assert.Equal(t, domain.KindIO, result.Err.Kind)
		})
	}
}

func TestEmbeddedExtractor_TruncatedExifSegment(t *testing.T) {
	data := testutil.WithExif(testutil.JPEGBytes(t, testutil.Gradient(16, 16)), testutil.BuildTIFF(cameraTags))
	// Point the IFD past the end of the block.
	data[2+2+2+6+4] = 0xF0

	path := testutil.WriteFile(t, t.TempDir(), "bad-exif.jpg", data)
	result := NewEmbeddedExtractor(nil).Extract(path)

	assert.True(t, result.Failed())
	assert.Contains(t, result.Map(), domain.ErrorKey)
}

func TestLocateExif(t *testing.T) {
	block := testutil.BuildTIFF(cameraTags)

	t.Run("jpeg with app1", func(t *testing.T) {
		data := testutil.WithExif(testutil.JPEGBytes(t, testutil.Gradient(8, 8)), block)
		got, err := locateExif("jpeg", data)
		require.NoError(t, err)
		assert.Equal(t, block, got)
	})

	t.Run("jpeg without app1", func(t *testing.T) {
		got, err := locateExif("jpeg", testutil.JPEGBytes(t, testutil.Gradient(8, 8)))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("tiff is its own block", func(t *testing.T) {
		got, err := locateExif("tiff", block)
		require.NoError(t, err)
		assert.Equal(t, block, got)
	})

	t.Run("bmp has none", func(t *testing.T) {
		got, err := locateExif("bmp", []byte("BM...."))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("truncated jpeg segment", func(t *testing.T) {
		_, err := locateExif("jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x40, 0x01})
		assert.Error(t, err)
	})
}

func TestTagKey(t *testing.T) {
	assert.Equal(t, "Image Make", tagKey("IFD", "Make", 0x010F))
	assert.Equal(t, "EXIF DateTimeOriginal", tagKey("IFD/Exif", "DateTimeOriginal", 0x9003))
	assert.Equal(t, "GPS Tag 0xABCD", tagKey("IFD/GPSInfo", "", 0xABCD))
	assert.Equal(t, "IFD/Other Foo", tagKey("IFD/Other", "Foo", 1))
}
