package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // register WEBP decoder

	"tickmill/internal/config"
	"tickmill/internal/domain"
)

// Normalizer decodes raw uploads into upright, size-bounded images encoded
// in a format the inference service accepts.
type Normalizer struct {
	maxDim        int
	defaultFormat domain.ImageFormat
	jpegQuality   int
}

// NewNormalizer creates a Normalizer from image config.
func NewNormalizer(cfg *config.ImageConfig) *Normalizer {
	maxDim := cfg.MaxDimension
	if maxDim <= 0 {
		maxDim = 1120
	}
	quality := cfg.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	format := domain.ImageFormat(cfg.DefaultFormat)
	if _, ok := domain.SupportedFormats[format]; !ok {
		format = domain.FormatJPEG
	}
	return &Normalizer{
		maxDim:        maxDim,
		defaultFormat: format,
		jpegQuality:   quality,
	}
}

// Normalize decodes raw bytes, bakes EXIF orientation into the pixel data,
// flattens transparency when the target format cannot carry it, downscales
// to the maximum dimension (never upscales), and re-encodes. An undecodable
// image is a hard failure.
func (n *Normalizer) Normalize(raw []byte) (*domain.NormalizedImage, error) {
	img, formatName, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	img = applyOrientation(img, readOrientation(raw))

	format := encodableFormat(formatName, n.defaultFormat)

	if longestEdge(img) > n.maxDim {
		img = imaging.Fit(img, n.maxDim, n.maxDim, imaging.Lanczos)
	}

	return n.encode(img, format)
}

// Rotate applies a clockwise rotation correction in degrees (one of 90, 180,
// 270) and re-encodes in the image's existing format. A zero rotation returns
// the input unchanged.
func (n *Normalizer) Rotate(src *domain.NormalizedImage, degrees int) (*domain.NormalizedImage, error) {
	if degrees == 0 {
		return src, nil
	}
	if !domain.ValidRotations[degrees] {
		return nil, fmt.Errorf("invalid rotation correction: %d", degrees)
	}

	img, _, err := image.Decode(bytes.NewReader(src.Bytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	// imaging rotates counter-clockwise; the correction is clockwise.
	switch degrees {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}

	return n.encode(img, src.Format)
}

func (n *Normalizer) encode(img image.Image, format domain.ImageFormat) (*domain.NormalizedImage, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case domain.FormatPNG:
		err = png.Encode(&buf, img)
	case domain.FormatGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		// JPEG has no alpha channel; flatten onto a white backing.
		img = flattenAlpha(img)
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.jpegQuality})
		format = domain.FormatJPEG
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	bounds := img.Bounds()
	return &domain.NormalizedImage{
		Bytes:  buf.Bytes(),
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// encodableFormat maps a decoded format name to an output format. WEBP has
// no Go encoder, so WEBP input re-encodes to the default format; anything
// outside the supported set coerces to the default as well.
func encodableFormat(decoded string, fallback domain.ImageFormat) domain.ImageFormat {
	switch decoded {
	case "jpeg":
		return domain.FormatJPEG
	case "png":
		return domain.FormatPNG
	case "gif":
		return domain.FormatGIF
	default:
		return fallback
	}
}

// readOrientation extracts the EXIF orientation tag, returning 1 (upright)
// when the image carries no usable EXIF block.
func readOrientation(raw []byte) int {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// applyOrientation transforms pixel data so the intended upright view no
// longer depends on the orientation tag.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func flattenAlpha(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func longestEdge(img image.Image) int {
	b := img.Bounds()
	if b.Dx() > b.Dy() {
		return b.Dx()
	}
	return b.Dy()
}
