// Package pipeline converts the pages of a source document into a DOCX
// package, one page at a time and in document order.
//
// For every page the pipeline appends the page text as one paragraph, then
// each detected table, then each embedded image, and finally a page break
// unless the page is the last. Images that cannot be decoded are skipped
// and counted; every other failure aborts the conversion with an *Error and
// no output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tsawler/pdf2docx/docx"
	"github.com/tsawler/pdf2docx/imaging"
	"github.com/tsawler/pdf2docx/model"
)

// Source yields the pages of one document. Implementations need not be
// safe for concurrent use; the pipeline calls them from one goroutine.
type Source interface {
	PageCount() (int, error)
	Page(ctx context.Context, index int, want model.Want) (*model.PageRecord, error)
	Close() error
}

// Result is a finished conversion.
type Result struct {
	// ID identifies the conversion in logs.
	ID    string
	Data  []byte
	Stats model.Stats
}

// Error is returned for every fatal conversion failure.
type Error struct {
	// Page is the 0-based page being converted, or -1.
	Page int
	Err  error
}

func (e *Error) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("conversion failed: page %d: %v", e.Page+1, e.Err)
	}
	return "conversion failed: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithImageWidth sets the display width of embedded images in inches.
func WithImageWidth(inches float64) Option {
	return func(p *Pipeline) {
		if inches > 0 {
			p.imageWidth = inches
		}
	}
}

// WithTitle sets the title stored in the document properties.
func WithTitle(title string) Option {
	return func(p *Pipeline) { p.title = title }
}

// Pipeline holds conversion settings shared by all conversions. It keeps no
// per-conversion state and is safe for concurrent use.
type Pipeline struct {
	log        zerolog.Logger
	imageWidth float64
	title      string
}

// New returns a Pipeline.
func New(log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:        log.With().Str("component", "pipeline").Logger(),
		imageWidth: docx.DefaultImageWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert reads every page of src and returns the serialized document. The
// caller keeps ownership of src and must close it. progress may be nil.
func (p *Pipeline) Convert(ctx context.Context, src Source, opts model.Options, progress model.ProgressFunc) (*Result, error) {
	c := &conversion{
		id:       uuid.NewString(),
		opts:     opts,
		progress: progress,
		started:  time.Now(),
	}
	c.log = p.log.With().Str("conversion", c.id).Logger()
	c.doc = docx.New(docx.WithTitle(p.title), docx.WithImageWidth(p.imageWidth))

	c.emit(model.StageStarting, 0, 0, 0, "Starting conversion")

	n, err := src.PageCount()
	if err != nil {
		return nil, c.fail(-1, err)
	}
	c.emit(model.StageAnalyzing, 0, n, 5, fmt.Sprintf("Analyzing document structure (%d pages)", n))

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(i, err)
		}
		rec, err := src.Page(ctx, i, opts.Want())
		if err != nil {
			return nil, c.fail(i, err)
		}
		if err := c.appendPage(rec); err != nil {
			return nil, c.fail(i, err)
		}
		if i < n-1 {
			if err := c.doc.AddPageBreak(); err != nil {
				return nil, c.fail(i, err)
			}
		}
		c.stats.Pages++
		c.emit(model.StageExtracting, i+1, n, 5+85*(i+1)/n,
			fmt.Sprintf("Extracting text and tables (page %d of %d)", i+1, n))
	}

	c.emit(model.StageFinalizing, 0, n, 95, "Finalizing document")
	data, err := c.doc.Bytes()
	if err != nil {
		return nil, c.fail(-1, err)
	}
	c.emit(model.StageDone, 0, n, 100, "Conversion complete")

	c.log.Info().
		Int("pages", c.stats.Pages).
		Int("images", c.stats.Images).
		Int("tables", c.stats.Tables).
		Int("text_blocks", c.stats.TextBlocks).
		Int("images_skipped", c.stats.ImagesSkipped).
		Int("rows_adjusted", c.stats.RowsAdjusted).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(c.started)).
		Msg("conversion finished")

	return &Result{ID: c.id, Data: data, Stats: c.stats}, nil
}

// conversion is the state of one Convert call.
type conversion struct {
	id       string
	log      zerolog.Logger
	opts     model.Options
	progress model.ProgressFunc
	doc      *docx.Document
	stats    model.Stats
	started  time.Time
}

func (c *conversion) appendPage(rec *model.PageRecord) error {
	if rec == nil {
		return errors.New("source returned no page")
	}

	if text := strings.TrimSpace(rec.Text); text != "" {
		if err := c.doc.AddParagraph(text); err != nil {
			return err
		}
		c.stats.TextBlocks++
	}

	if c.opts.IncludeTables {
		for _, t := range rec.Tables {
			if t.IsEmpty() {
				continue
			}
			norm, adjusted := t.Normalize()
			if adjusted > 0 {
				c.log.Debug().
					Int("page", rec.Index+1).
					Int("rows", norm.RowCount()).
					Int("cols", norm.ColCount()).
					Int("adjusted", adjusted).
					Msg("normalized ragged table")
				c.stats.RowsAdjusted += adjusted
			}
			if err := c.doc.AddTable(norm.Rows); err != nil {
				return err
			}
			c.stats.Tables++
		}
	}

	if c.opts.IncludeImages {
		for _, img := range rec.Images {
			c.appendImage(rec.Index, img)
		}
	}
	return nil
}

// appendImage embeds one image. Failures only skip the image.
func (c *conversion) appendImage(page int, img model.ImageRecord) {
	enc, err := imaging.Prepare(img.Data, c.opts.Quality)
	if err == nil {
		err = c.doc.AddPicture(enc.Data, enc.Format, enc.Width, enc.Height)
	}
	if err != nil {
		c.log.Debug().
			Err(err).
			Int("page", page+1).
			Str("image", img.Name).
			Str("format", img.Format).
			Int("bytes", len(img.Data)).
			Msg("skipping undecodable image")
		c.stats.ImagesSkipped++
		return
	}
	c.stats.Images++
}

func (c *conversion) emit(stage model.Stage, page, pages, percent int, msg string) {
	c.log.Debug().Str("stage", string(stage)).Int("percent", percent).Msg(msg)
	if c.progress != nil {
		c.progress(model.Progress{
			Stage:   stage,
			Page:    page,
			Pages:   pages,
			Percent: percent,
			Message: msg,
		})
	}
}

func (c *conversion) fail(page int, err error) error {
	ev := c.log.Error().Err(err)
	if page >= 0 {
		ev = ev.Int("page", page+1)
	}
	ev.Msg("conversion failed")
	return &Error{Page: page, Err: err}
}
