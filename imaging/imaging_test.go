package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/tsawler/pdf2docx/model"
)

func gradient(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 64, A: alpha})
		}
	}
	return img
}

func encodeWith(t *testing.T, enc func(*bytes.Buffer, image.Image) error, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	img := gradient(16, 8, 255)

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }, img), "png"},
		{"jpeg", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) }, img), "jpeg"},
		{"gif", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) }, img), "gif"},
		{"tiff", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) }, img), "tiff"},
		{"bmp", encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }, img), "bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, format, err := Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, 16, got.Bounds().Dx())
			assert.Equal(t, 8, got.Bounds().Dy())
		})
	}
}

func TestDecode_Garbage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), {0xff, 0xd8, 0xff, 0x00}} {
		_, _, err := Decode(data)
		assert.ErrorIs(t, err, ErrDecode)
	}
}

func TestPrepare_QualityProfiles(t *testing.T) {
	src := encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }, gradient(2000, 1000, 255))

	tests := []struct {
		quality    model.Quality
		wantFormat string
		wantWidth  int
		wantHeight int
	}{
		{model.QualityFast, FormatJPEG, 750, 375},
		{model.QualityBalanced, FormatJPEG, 1500, 750},
		{model.QualityHigh, FormatPNG, 2000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.quality.String(), func(t *testing.T) {
			enc, err := Prepare(src, tt.quality)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, enc.Format)
			assert.Equal(t, tt.wantWidth, enc.Width)
			assert.Equal(t, tt.wantHeight, enc.Height)
			assert.Equal(t, "png", enc.Source)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(enc.Data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantWidth, cfg.Width)
		})
	}
}

func TestPrepare_SmallImageNotUpscaled(t *testing.T) {
	src := encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }, gradient(40, 20, 255))

	enc, err := Prepare(src, model.QualityFast)
	require.NoError(t, err)
	assert.Equal(t, 40, enc.Width)
	assert.Equal(t, 20, enc.Height)
}

func TestPrepare_TransparencyKeepsPNG(t *testing.T) {
	src := encodeWith(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }, gradient(10, 10, 100))

	enc, err := Prepare(src, model.QualityFast)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, enc.Format)
}

func TestPrepare_Undecodable(t *testing.T) {
	_, err := Prepare([]byte{0x00, 0x01, 0x02}, model.QualityBalanced)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, 60, ProfileFor(model.QualityFast).JPEGQuality)
	assert.Equal(t, 85, ProfileFor(model.QualityBalanced).JPEGQuality)
	assert.True(t, ProfileFor(model.QualityHigh).Lossless)
	assert.Equal(t, 1500, ProfileFor(model.Quality(42)).MaxWidth)
}

func TestResize(t *testing.T) {
	got := Resize(gradient(300, 100, 255), 30, nil)
	assert.Equal(t, image.Rect(0, 0, 30, 10), got.Bounds())

	tall := Resize(gradient(1000, 1, 255), 10, nil)
	assert.Equal(t, 1, tall.Bounds().Dy())

	same := gradient(5, 5, 255)
	assert.Same(t, same, Resize(same, 0, nil))
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(gradient(3, 3, 255))
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}
