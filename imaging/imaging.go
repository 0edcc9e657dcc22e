// Package imaging decodes images embedded in PDFs and re-encodes them for a
// word-processing document according to a conversion quality.
//
// Supported inputs are JPEG, PNG, GIF, TIFF, BMP and WebP. Outputs are JPEG or
// PNG, the two formats every DOCX consumer can display.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	// Register additional decoders with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/pdf2docx/model"
)

// MaxPixels bounds the decoded size of a single image.
const MaxPixels = 64 << 20

var (
	// ErrDecode is returned when the bytes are not an image in a supported
	// format.
	ErrDecode = errors.New("imaging: cannot decode image")

	// ErrTooLarge is returned for images above MaxPixels.
	ErrTooLarge = errors.New("imaging: image too large")
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Profile describes how images are re-encoded for one quality level.
type Profile struct {
	// Lossless forces PNG output.
	Lossless bool

	// JPEGQuality is used for opaque images when Lossless is false.
	JPEGQuality int

	// MaxWidth caps the pixel width; 0 leaves images unscaled.
	MaxWidth int

	// Scaler resamples images wider than MaxWidth.
	Scaler draw.Interpolator
}

var profiles = map[model.Quality]Profile{
	model.QualityFast:     {JPEGQuality: 60, MaxWidth: 750, Scaler: draw.ApproxBiLinear},
	model.QualityBalanced: {JPEGQuality: 85, MaxWidth: 1500, Scaler: draw.BiLinear},
	model.QualityHigh:     {Lossless: true, Scaler: draw.CatmullRom},
}

// ProfileFor returns the encoding profile of q. Unknown values get the
// Balanced profile.
func ProfileFor(q model.Quality) Profile {
	if p, ok := profiles[q]; ok {
		return p
	}
	return profiles[model.QualityBalanced]
}

// Encoded is an image ready to be embedded.
type Encoded struct {
	Data   []byte
	Format string
	Width  int
	Height int

	// Source is the format the input was decoded from.
	Source string
}

// Decode decodes data, refusing images larger than MaxPixels before
// allocating them.
func Decode(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: zero dimensions", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}
	return img, format, nil
}

// Prepare decodes data and re-encodes it with the profile of q.
func Prepare(data []byte, q model.Quality) (*Encoded, error) {
	img, source, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Encode(img, source, ProfileFor(q))
}

// Encode scales img to the profile's width limit and encodes it. Opaque
// images become JPEG unless the profile is lossless; images with
// transparency always become PNG.
func Encode(img image.Image, source string, p Profile) (*Encoded, error) {
	if p.MaxWidth > 0 && img.Bounds().Dx() > p.MaxWidth {
		img = Resize(img, p.MaxWidth, p.Scaler)
	}

	format := FormatPNG
	if !p.Lossless && isOpaque(img) {
		format = FormatJPEG
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
	}

	b := img.Bounds()
	return &Encoded{
		Data:   buf.Bytes(),
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Source: source,
	}, nil
}

// Resize scales img to width pixels, preserving the aspect ratio. A nil
// scaler means draw.BiLinear.
func Resize(img image.Image, width int, scaler draw.Interpolator) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return img
	}
	if scaler == nil {
		scaler = draw.BiLinear
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isOpaque(img image.Image) bool {
	switch m := img.(type) {
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return m.Opaque()
			}
		}
		return true
	case interface{ Opaque() bool }:
		return m.Opaque()
	}
	return true
}
