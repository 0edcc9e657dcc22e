package pdf2docx

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/pdfsource"
	"github.com/tsawler/pdf2docx/pipeline"
	"github.com/tsawler/pdf2docx/stage"
)

// Converter is a configured conversion of one input. Configuration methods
// return a copy; the receiver is never modified.
type Converter struct {
	filename string
	input    io.Reader
	options  convertOptions
}

func (c *Converter) clone() *Converter {
	out := *c
	return &out
}

// WithoutImages leaves embedded images out of the output.
func (c *Converter) WithoutImages() *Converter {
	out := c.clone()
	out.options.conv.IncludeImages = false
	return out
}

// WithoutTables leaves detected tables out of the output. Table text is
// still part of the page paragraph.
func (c *Converter) WithoutTables() *Converter {
	out := c.clone()
	out.options.conv.IncludeTables = false
	return out
}

// Quality sets how embedded images are re-encoded.
func (c *Converter) Quality(q Quality) *Converter {
	out := c.clone()
	out.options.conv.Quality = q
	return out
}

// Options replaces all per-request switches at once.
func (c *Converter) Options(opts model.Options) *Converter {
	out := c.clone()
	out.options.conv = opts
	return out
}

// ImageWidth sets the display width of embedded images in inches.
func (c *Converter) ImageWidth(inches float64) *Converter {
	out := c.clone()
	if inches > 0 {
		out.options.imageWidth = inches
	}
	return out
}

// Title sets the document title. By default the input file name without
// its extension is used.
func (c *Converter) Title(title string) *Converter {
	out := c.clone()
	out.options.title = title
	return out
}

// StagingDir sets where FromReader and FromBytes inputs are staged.
func (c *Converter) StagingDir(dir string) *Converter {
	out := c.clone()
	out.options.stagingDir = dir
	return out
}

// WithLogger sets the logger passed to every component.
func (c *Converter) WithLogger(log zerolog.Logger) *Converter {
	out := c.clone()
	out.options.log = log
	return out
}

// WithOCR enables recognition of scanned pages that carry no text layer.
func (c *Converter) WithOCR(r pdfsource.Recognizer) *Converter {
	out := c.clone()
	out.options.ocr = r
	return out
}

// OnProgress registers fn to receive progress events.
func (c *Converter) OnProgress(fn model.ProgressFunc) *Converter {
	out := c.clone()
	out.options.progress = fn
	return out
}

// Convert runs the conversion. Failures are returned as *Error; use
// errors.Is with ErrSourceUnreadable or ErrEncrypted to classify them.
func (c *Converter) Convert(ctx context.Context) (*Result, error) {
	if c.filename != "" {
		return c.convertFile(ctx, c.filename)
	}
	if c.input == nil {
		return nil, &Error{Page: -1, Err: errors.New("no input specified")}
	}

	var res *Result
	stager := stage.New(c.options.stagingDir, c.options.log)
	err := stager.With(ctx, c.input, func(h *stage.Handle) error {
		var err error
		res, err = c.convertFile(ctx, h.Path())
		return err
	})
	if err != nil {
		var convErr *Error
		if !errors.As(err, &convErr) {
			err = &Error{Page: -1, Err: err}
		}
		return nil, err
	}
	return res, nil
}

func (c *Converter) convertFile(ctx context.Context, path string) (*Result, error) {
	srcOpts := []pdfsource.Option{pdfsource.WithLogger(c.options.log)}
	if c.options.ocr != nil {
		srcOpts = append(srcOpts, pdfsource.WithOCR(c.options.ocr))
	}

	src, err := pdfsource.Open(path, srcOpts...)
	if err != nil {
		return nil, &Error{Page: -1, Err: err}
	}
	defer src.Close()

	p := pipeline.New(c.options.log,
		pipeline.WithImageWidth(c.options.imageWidth),
		pipeline.WithTitle(c.title()),
	)
	return p.Convert(ctx, src, c.options.conv, c.options.progress)
}

func (c *Converter) title() string {
	if c.options.title != "" || c.filename == "" {
		return c.options.title
	}
	base := filepath.Base(c.filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
