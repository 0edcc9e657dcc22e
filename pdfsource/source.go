// Package pdfsource reads pages of a PDF file into model.PageRecord values
// using the tabula PDF library: layout-aware text, geometrically detected
// tables and embedded images in drawing order.
//
// A Source is the production implementation of pipeline.Source:
//
//	src, err := pdfsource.Open(path, pdfsource.WithLogger(log))
//	if err != nil {
//	    return err // wraps model.ErrSourceUnreadable or model.ErrEncrypted
//	}
//	defer src.Close()
package pdfsource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"

	"github.com/tsawler/pdf2docx/model"
)

// Recognizer turns page images into text. *ocr.Client implements it.
type Recognizer interface {
	RecognizeAll(ctx context.Context, images [][]byte) (string, error)
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Source) { s.log = log }
}

// WithOCR enables the OCR fallback for pages without a text layer.
func WithOCR(r Recognizer) Option {
	return func(s *Source) { s.ocr = r }
}

// WithTableConfig overrides the table detector settings.
func WithTableConfig(cfg tables.Config) Option {
	return func(s *Source) { s.tableConfig = cfg }
}

// Source is an open PDF. It is not safe for concurrent use.
type Source struct {
	path        string
	r           *reader.Reader
	log         zerolog.Logger
	ocr         Recognizer
	tableConfig tables.Config
	detector    *tables.GeometricDetector
	pageCount   int
}

// Open opens the PDF at path. Password-protected files fail with an error
// wrapping model.ErrEncrypted; anything else that cannot be parsed fails
// with model.ErrSourceUnreadable.
func Open(path string, opts ...Option) (*Source, error) {
	s := &Source{
		path:        path,
		log:         zerolog.Nop(),
		tableConfig: tables.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "pdfsource").Logger()

	r, err := reader.Open(path)
	if err != nil {
		if sniffEncrypted(path) {
			return nil, fmt.Errorf("opening %s: %w", path, model.ErrEncrypted)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrSourceUnreadable, err)
	}
	if r.Trailer().Get("Encrypt") != nil {
		r.Close()
		return nil, fmt.Errorf("opening %s: %w", path, model.ErrEncrypted)
	}

	n, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: reading page tree: %v", model.ErrSourceUnreadable, err)
	}

	s.r = r
	s.pageCount = n
	s.detector = tables.NewGeometricDetector()
	if err := s.detector.Configure(s.tableConfig); err != nil {
		r.Close()
		return nil, fmt.Errorf("configuring table detector: %w", err)
	}

	s.log.Debug().Str("path", path).Int("pages", n).Str("version", r.Version().String()).Msg("opened PDF")
	return s, nil
}

// PageCount returns the number of pages.
func (s *Source) PageCount() (int, error) {
	return s.pageCount, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (s *Source) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil
	return err
}

// Page extracts page index (0-based). Tables and images are only extracted
// when want asks for them, except that images are always read for the OCR
// fallback of a page without text.
func (s *Source) Page(ctx context.Context, index int, want model.Want) (rec *model.PageRecord, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.r == nil {
		return nil, fmt.Errorf("%w: source closed", model.ErrSourceUnreadable)
	}
	if index < 0 || index >= s.pageCount {
		return nil, fmt.Errorf("page %d out of range (0-%d)", index, s.pageCount-1)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			rec = nil
			err = fmt.Errorf("%w: page %d: %v", model.ErrSourceUnreadable, index+1, p)
		}
	}()

	page, err := s.r.GetPage(index)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", model.ErrSourceUnreadable, index+1, err)
	}

	text, warnings, err := tabula.FromReader(s.r).Pages(index + 1).Text()
	if err != nil {
		return nil, fmt.Errorf("%w: page %d text: %v", model.ErrSourceUnreadable, index+1, err)
	}
	for _, w := range warnings {
		s.log.Debug().Int("page", index+1).Str("warning", w.Message).Msg("text extraction warning")
	}

	rec = &model.PageRecord{Index: index, Text: text}

	var content []byte
	if want.Tables || want.Images || s.ocr != nil {
		content, err = pageContent(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d content: %v", model.ErrSourceUnreadable, index+1, err)
		}
	}

	if want.Tables {
		rec.Tables, err = s.detectTables(page, content)
		if err != nil {
			return nil, fmt.Errorf("page %d tables: %w", index+1, err)
		}
	}

	needOCR := s.ocr != nil && !rec.HasText()
	if want.Images || needOCR {
		images, err := s.extractImages(page, content)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d images: %v", model.ErrSourceUnreadable, index+1, err)
		}
		if needOCR && len(images) > 0 {
			rec.Text = s.recognize(ctx, index, images)
		}
		if want.Images {
			rec.Images = images
		}
	}

	return rec, nil
}

// recognize runs the OCR fallback. OCR failures are not fatal: the page
// simply stays without text.
func (s *Source) recognize(ctx context.Context, index int, images []model.ImageRecord) string {
	var data [][]byte
	for _, img := range images {
		if img.Format == "png" || img.Format == "jpeg" {
			data = append(data, img.Data)
		}
	}
	if len(data) == 0 {
		return ""
	}
	text, err := s.ocr.RecognizeAll(ctx, data)
	if err != nil {
		s.log.Debug().Err(err).Int("page", index+1).Msg("OCR fallback skipped")
		return ""
	}
	s.log.Debug().Int("page", index+1).Int("chars", len(text)).Msg("recognized page text")
	return text
}

// pageContent decodes and concatenates the content streams of page.
func pageContent(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// sniffEncrypted looks for an /Encrypt entry in the last kilobytes of a file
// the parser rejected, so that damaged protected files still report
// encryption.
func sniffEncrypted(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	const tail = 4096
	off := info.Size() - tail
	if off < 0 {
		off = 0
	}
	buf := make([]byte, info.Size()-off)
	if _, err := f.ReadAt(buf, off); err != nil {
		return false
	}
	return strings.HasPrefix(readHeader(f), "%PDF-") && bytes.Contains(buf, []byte("/Encrypt"))
}

func readHeader(f *os.File) string {
	buf := make([]byte, 8)
	n, _ := f.ReadAt(buf, 0)
	return string(buf[:n])
}
