// Package pdf2docx converts PDF documents into editable Word (.docx) files.
//
// Basic usage:
//
//	res, err := pdf2docx.Open("report.pdf").Convert(ctx)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("report_converted.docx", res.Data, 0o644)
//
// With options:
//
//	res, err := pdf2docx.Open("report.pdf").
//	    WithoutImages().
//	    Quality(pdf2docx.QualityHigh).
//	    Convert(ctx)
//
// Every configuration method returns a new Converter, so a configured
// Converter can be shared and reused. The lower-level packages (stage,
// pdfsource, pipeline, docx) are available for finer control.
package pdf2docx

import (
	"bytes"
	"io"

	"github.com/tsawler/pdf2docx/format"
	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/pipeline"
)

// Re-exported so that callers of the fluent API rarely need the model
// package.
type (
	Quality  = model.Quality
	Stats    = model.Stats
	Progress = model.Progress
	Result   = pipeline.Result
	Error    = pipeline.Error
)

const (
	QualityBalanced = model.QualityBalanced
	QualityFast     = model.QualityFast
	QualityHigh     = model.QualityHigh
)

var (
	ErrSourceUnreadable = model.ErrSourceUnreadable
	ErrEncrypted        = model.ErrEncrypted
)

// Open returns a Converter for the PDF at filename.
func Open(filename string) *Converter {
	return &Converter{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader returns a Converter that stages r into a temporary file when
// Convert runs. r is read at most once.
func FromReader(r io.Reader) *Converter {
	return &Converter{
		input:   r,
		options: defaultOptions(),
	}
}

// FromBytes returns a Converter for an in-memory PDF.
func FromBytes(data []byte) *Converter {
	return FromReader(bytes.NewReader(data))
}

// OutputName returns the file name a converted copy of name is saved
// under: "report.pdf" becomes "report_converted.docx".
func OutputName(name string) string {
	return format.OutputName(name)
}

// Must panics if err is non-nil. It is intended for scripts and tests.
//
//	res := pdf2docx.Must(pdf2docx.Open("in.pdf").Convert(ctx))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
