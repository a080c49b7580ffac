package imgproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickmill/internal/config"
	"tickmill/internal/domain"
)

func newTestNormalizer(maxDim int) *Normalizer {
	return NewNormalizer(&config.ImageConfig{
		MaxDimension:  maxDim,
		DefaultFormat: "jpeg",
		JPEGQuality:   90,
	})
}

func encodeTestImage(t *testing.T, w, h int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	return encodeTestImage(t, w, h, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	})
}

func pngBytes(t *testing.T, w, h int) []byte {
	return encodeTestImage(t, w, h, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})
}

func TestNormalizeDownscalesOversizedImage(t *testing.T) {
	n := newTestNormalizer(1120)

	out, err := n.Normalize(jpegBytes(t, 2000, 1500))
	require.NoError(t, err)

	assert.Equal(t, domain.FormatJPEG, out.Format)
	assert.Equal(t, 1120, out.Width)
	assert.LessOrEqual(t, out.Height, 1120)
	assert.InDelta(t, 2000.0/1500.0, float64(out.Width)/float64(out.Height), 0.01,
		"aspect ratio must be preserved")
}

func TestNormalizeNeverUpscales(t *testing.T) {
	n := newTestNormalizer(1120)

	out, err := n.Normalize(jpegBytes(t, 640, 480))
	require.NoError(t, err)

	assert.Equal(t, 640, out.Width)
	assert.Equal(t, 480, out.Height)
}

func TestNormalizePreservesPNG(t *testing.T) {
	n := newTestNormalizer(1120)

	out, err := n.Normalize(pngBytes(t, 100, 80))
	require.NoError(t, err)

	assert.Equal(t, domain.FormatPNG, out.Format)
	cfg, formatName, err := image.DecodeConfig(bytes.NewReader(out.Bytes))
	require.NoError(t, err)
	assert.Equal(t, "png", formatName)
	assert.Equal(t, 100, cfg.Width)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := newTestNormalizer(1120)

	_, err := n.Normalize([]byte("not an image at all"))
	assert.True(t, errors.Is(err, domain.ErrImageDecode))
}

func TestNormalizeOutputAlwaysSupported(t *testing.T) {
	n := newTestNormalizer(1120)

	for _, raw := range [][]byte{jpegBytes(t, 50, 50), pngBytes(t, 50, 50)} {
		out, err := n.Normalize(raw)
		require.NoError(t, err)
		_, ok := domain.SupportedFormats[out.Format]
		assert.True(t, ok, "format %s must be in the supported set", out.Format)
	}
}

func TestRotateSwapsDimensions(t *testing.T) {
	n := newTestNormalizer(1120)

	src, err := n.Normalize(jpegBytes(t, 200, 100))
	require.NoError(t, err)

	out, err := n.Rotate(src, 90)
	require.NoError(t, err)

	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 200, out.Height)
	assert.Equal(t, src.Format, out.Format)
}

func TestRotateZeroIsIdentity(t *testing.T) {
	n := newTestNormalizer(1120)

	src, err := n.Normalize(jpegBytes(t, 200, 100))
	require.NoError(t, err)

	out, err := n.Rotate(src, 0)
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestRotateRejectsArbitraryAngle(t *testing.T) {
	n := newTestNormalizer(1120)

	src, err := n.Normalize(jpegBytes(t, 200, 100))
	require.NoError(t, err)

	_, err = n.Rotate(src, 45)
	assert.Error(t, err)
}

// withExifOrientation splices a minimal EXIF APP1 segment carrying only an
// Orientation tag into a JPEG, right after the SOI marker.
func withExifOrientation(t *testing.T, jpg []byte, orientation byte) []byte {
	t.Helper()
	require.True(t, bytes.HasPrefix(jpg, []byte{0xFF, 0xD8}))
	app1 := []byte{
		0xFF, 0xE1, 0x00, 0x22, // APP1, length 34
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08, // big-endian TIFF, IFD0 at 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, orientation, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	out := make([]byte, 0, len(jpg)+len(app1))
	out = append(out, jpg[:2]...)
	out = append(out, app1...)
	out = append(out, jpg[2:]...)
	return out
}

func TestNormalizeBakesInExifOrientation(t *testing.T) {
	n := newTestNormalizer(1120)

	for _, orientation := range []byte{6, 8} {
		out, err := n.Normalize(withExifOrientation(t, jpegBytes(t, 200, 100), orientation))
		require.NoError(t, err)
		assert.Equal(t, 100, out.Width, "orientation %d must swap dimensions", orientation)
		assert.Equal(t, 200, out.Height, "orientation %d must swap dimensions", orientation)

		// The re-encoded output carries no EXIF, so a second pass is upright already.
		again, err := n.Normalize(out.Bytes)
		require.NoError(t, err)
		assert.Equal(t, out.Width, again.Width)
		assert.Equal(t, out.Height, again.Height)
	}
}

func TestNormalizeUprightExifOrientationIsNoOp(t *testing.T) {
	n := newTestNormalizer(1120)

	out, err := n.Normalize(withExifOrientation(t, jpegBytes(t, 200, 100), 1))
	require.NoError(t, err)
	assert.Equal(t, 200, out.Width)
	assert.Equal(t, 100, out.Height)
}

func TestReadOrientation(t *testing.T) {
	assert.Equal(t, 1, readOrientation(jpegBytes(t, 10, 10)), "no EXIF block defaults upright")
	assert.Equal(t, 6, readOrientation(withExifOrientation(t, jpegBytes(t, 10, 10), 6)))
	assert.Equal(t, 1, readOrientation(withExifOrientation(t, jpegBytes(t, 10, 10), 9)),
		"out-of-range tag defaults upright")
}

func TestApplyOrientation(t *testing.T) {
	// 3x2 source with a red marker in the top-left corner; each case names
	// where the marker lands once the tag is baked into the pixel data.
	cases := []struct {
		orientation  int
		w, h         int
		markX, markY int
	}{
		{1, 3, 2, 0, 0},
		{2, 3, 2, 2, 0},
		{3, 3, 2, 2, 1},
		{4, 3, 2, 0, 1},
		{5, 2, 3, 0, 0},
		{6, 2, 3, 1, 0},
		{7, 2, 3, 1, 2},
		{8, 2, 3, 0, 2},
	}

	for _, tc := range cases {
		src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
		for x := 0; x < 3; x++ {
			for y := 0; y < 2; y++ {
				src.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
		src.Set(0, 0, color.NRGBA{R: 255, A: 255})

		out := applyOrientation(src, tc.orientation)
		assert.Equal(t, tc.w, out.Bounds().Dx(), "orientation %d width", tc.orientation)
		assert.Equal(t, tc.h, out.Bounds().Dy(), "orientation %d height", tc.orientation)

		r, g, b, _ := out.At(tc.markX, tc.markY).RGBA()
		assert.True(t, r>>8 == 255 && g == 0 && b == 0,
			"orientation %d: marker expected at (%d,%d)", tc.orientation, tc.markX, tc.markY)
	}
}

func TestNormalizeIdempotentDimensions(t *testing.T) {
	n := newTestNormalizer(1120)

	first, err := n.Normalize(jpegBytes(t, 3000, 2000))
	require.NoError(t, err)

	second, err := n.Normalize(first.Bytes)
	require.NoError(t, err)

	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
}
