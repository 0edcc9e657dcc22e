package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/tsawler/pdf2docx/format"
	"github.com/tsawler/pdf2docx/model"
)

// Form field names shared by the HTML form and the JSON API.
const (
	fieldFile          = "file"
	fieldIncludeImages = "include_images"
	fieldIncludeTables = "include_tables"
	fieldQuality       = "quality"
)

const maxMemory = 32 << 20

var (
	errNoFile = errors.New("no file uploaded")
	errNotPDF = errors.New("uploaded file is not a PDF")
)

// uploadError is a client error in the request itself.
type uploadError struct {
	status int
	err    error
}

func (e *uploadError) Error() string { return e.err.Error() }
func (e *uploadError) Unwrap() error { return e.err }

func badUpload(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &uploadError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("upload larger than %d bytes", mbe.Limit),
		}
	}
	return &uploadError{status: http.StatusBadRequest, err: err}
}

// upload is one received PDF.
type upload struct {
	name string
	file multipart.File
	size int64
}

func (u *upload) Close() error { return u.file.Close() }

// readUpload parses the multipart request and returns the single PDF in it
// together with the requested options. Form checkboxes that are absent mean
// false; API fields that are absent mean the configured defaults.
func (s *Server) readUpload(r *http.Request, checkboxes bool) (*upload, model.Options, error) {
	opts := s.cfg.ConvertOptions()

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, opts, badUpload(fmt.Errorf("reading upload: %w", err))
	}

	opts, err := s.parseOptions(r, checkboxes)
	if err != nil {
		return nil, opts, badUpload(err)
	}

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, opts, badUpload(errNoFile)
		}
		return nil, opts, badUpload(err)
	}

	head := make([]byte, 8)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, opts, badUpload(err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, opts, badUpload(err)
	}
	if n == 0 {
		file.Close()
		return nil, opts, badUpload(errNoFile)
	}
	if !format.IsPDF(header.Filename, head[:n]) {
		file.Close()
		return nil, opts, badUpload(fmt.Errorf("%w: %s", errNotPDF, header.Filename))
	}

	return &upload{name: header.Filename, file: file, size: header.Size}, opts, nil
}

func (s *Server) parseOptions(r *http.Request, checkboxes bool) (model.Options, error) {
	opts := s.cfg.ConvertOptions()

	var err error
	if opts.IncludeImages, err = formBool(r, fieldIncludeImages, opts.IncludeImages, checkboxes); err != nil {
		return opts, err
	}
	if opts.IncludeTables, err = formBool(r, fieldIncludeTables, opts.IncludeTables, checkboxes); err != nil {
		return opts, err
	}
	if v := r.FormValue(fieldQuality); v != "" {
		if opts.Quality, err = model.ParseQuality(v); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// formBool reads a boolean field. "on" is what browsers send for a
// checked checkbox.
func formBool(r *http.Request, name string, def, checkbox bool) (bool, error) {
	v := r.FormValue(name)
	switch {
	case v == "":
		if checkbox {
			return false, nil
		}
		return def, nil
	case v == "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", name, v)
	}
	return b, nil
}
