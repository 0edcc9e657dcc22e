// Package preview renders the first page of a staged PDF as a thumbnail and
// a plain-text snippet, so a user can check the document before converting
// it. The two parts fail independently and failures surface as warnings.
package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"

	"github.com/tsawler/pdf2docx/imaging"
	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/pdfsource"
	"github.com/tsawler/pdf2docx/stage"
)

// Warnings attached to a Preview.
const (
	WarnThumbnail = "Couldn't generate preview"
	WarnText      = "Couldn't extract text preview"
)

// Defaults used when Config fields are zero.
const (
	DefaultThumbnailWidth = 300
	DefaultThumbnailDPI   = 72.0
	DefaultSnippetChars   = 2000
)

// ErrNoPages is returned for a document without pages.
var ErrNoPages = errors.New("document has no pages")

// Preview is the first-page preview of one document.
type Preview struct {
	// Thumbnail is a PNG image, nil when rendering failed.
	Thumbnail []byte   `json:"thumbnail"`
	Text      string   `json:"text"`
	Warnings  []string `json:"warnings"`
}

// OK reports whether both parts were produced.
func (p *Preview) OK() bool { return len(p.Warnings) == 0 }

// Config controls preview sizes.
type Config struct {
	ThumbnailWidth int
	ThumbnailDPI   float64
	SnippetChars   int
}

func (c Config) withDefaults() Config {
	if c.ThumbnailWidth <= 0 {
		c.ThumbnailWidth = DefaultThumbnailWidth
	}
	if c.ThumbnailDPI <= 0 {
		c.ThumbnailDPI = DefaultThumbnailDPI
	}
	if c.SnippetChars <= 0 {
		c.SnippetChars = DefaultSnippetChars
	}
	return c
}

// Builder produces previews of staged files.
type Builder struct {
	cfg Config
	log zerolog.Logger
}

// NewBuilder returns a Builder; zero Config fields take the defaults.
func NewBuilder(cfg Config, log zerolog.Logger) *Builder {
	return &Builder{
		cfg: cfg.withDefaults(),
		log: log.With().Str("component", "preview").Logger(),
	}
}

// Build renders the preview of h. It never fails as a whole: each part that
// cannot be produced adds a warning instead.
func (b *Builder) Build(ctx context.Context, h *stage.Handle) *Preview {
	p := &Preview{}

	data, err := h.ReadAll()
	if err == nil {
		p.Thumbnail, err = Thumbnail(ctx, data, b.cfg.ThumbnailWidth, b.cfg.ThumbnailDPI)
	}
	if err != nil {
		b.log.Warn().Err(err).Str("path", h.Path()).Msg("thumbnail failed")
		p.Thumbnail = nil
		p.Warnings = append(p.Warnings, WarnThumbnail)
	}

	p.Text, err = Snippet(ctx, h.Path(), b.cfg.SnippetChars)
	if err != nil {
		b.log.Warn().Err(err).Str("path", h.Path()).Msg("text preview failed")
		p.Warnings = append(p.Warnings, WarnText)
	}
	return p
}

// Thumbnail renders the first page of pdf at dpi and scales it to width
// pixels, returning PNG bytes.
func Thumbnail(ctx context.Context, pdf []byte, width int, dpi float64) (png []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if dpi <= 0 {
		dpi = DefaultThumbnailDPI
	}

	// MuPDF is reached through cgo; a panic there must not take down a
	// request.
	defer func() {
		if r := recover(); r != nil {
			png, err = nil, fmt.Errorf("rendering thumbnail: %v", r)
		}
	}()

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, ErrNoPages
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page 1: %w", err)
	}

	return imaging.EncodePNG(imaging.Resize(img, width, draw.BiLinear))
}

// Snippet returns at most max characters of the first page's text. A
// document with an empty first page yields "" and no error.
func Snippet(ctx context.Context, path string, max int) (string, error) {
	src, err := pdfsource.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	n, err := src.PageCount()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNoPages
	}

	rec, err := src.Page(ctx, 0, model.Want{})
	if err != nil {
		return "", err
	}
	return truncate(strings.TrimSpace(rec.Text), max), nil
}

// truncate cuts s to max runes, appending an ellipsis when it shortened s.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return strings.TrimRightFunc(s[:i], isSpace) + "…"
		}
		n++
	}
	return s
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
