// Package stage persists uploaded PDF bytes to a uniquely named temporary
// file so that path-based libraries can read them, and removes the file again
// once the caller is done.
//
// Use [Stager.With] for scoped acquisition; the staged file is removed on
// every exit path, including errors and panics:
//
//	err := stager.With(ctx, upload, func(h *stage.Handle) error {
//	    return convert(h.Path())
//	})
package stage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrStaging is wrapped by every error caused by writing or reading the
// staged copy.
var ErrStaging = errors.New("staging failed")

// filePrefix is prepended to every staged file name.
const filePrefix = "pdf2docx-"

// Stager creates staged copies of uploads inside a directory.
type Stager struct {
	dir string
	log zerolog.Logger
}

// New returns a Stager writing into dir. An empty dir means os.TempDir().
func New(dir string, log zerolog.Logger) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Stager{
		dir: dir,
		log: log.With().Str("component", "stage").Logger(),
	}
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies r into a new staging file. The returned Handle must be
// released by the caller. No validation of the content is performed.
func (s *Stager) Stage(ctx context.Context, r io.Reader) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Join(s.dir, filePrefix+uuid.NewString()+".pdf")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrStaging, name, err)
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(name); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn().Err(rmErr).Str("path", name).Msg("removing partial staging file")
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: writing %s: %v", ErrStaging, name, err)
	}

	s.log.Debug().Str("path", name).Int64("bytes", n).Msg("staged upload")
	return &Handle{path: name, size: n, log: s.log}, nil
}

// StageBytes stages an in-memory buffer.
func (s *Stager) StageBytes(ctx context.Context, b []byte) (*Handle, error) {
	return s.Stage(ctx, bytes.NewReader(b))
}

// With stages r, calls fn with the handle and releases the handle afterwards,
// whatever fn does. A release failure is only returned when fn succeeded.
func (s *Stager) With(ctx context.Context, r io.Reader, fn func(*Handle) error) (err error) {
	h, err := s.Stage(ctx, r)
	if err != nil {
		return err
	}
	defer func() {
		relErr := h.Release()
		if p := recover(); p != nil {
			panic(p)
		}
		if err == nil && relErr != nil {
			err = relErr
		}
	}()
	return fn(h)
}

// Handle refers to one staged file.
type Handle struct {
	path string
	size int64
	log  zerolog.Logger

	once   sync.Once
	relErr error
}

// Path returns the filesystem path of the staged copy.
func (h *Handle) Path() string {
	return h.path
}

// Size returns the number of bytes staged.
func (h *Handle) Size() int64 {
	return h.size
}

// Open opens the staged file for reading.
func (h *Handle) Open() (*os.File, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaging, err)
	}
	return f, nil
}

// ReadAll returns the staged bytes.
func (h *Handle) ReadAll() ([]byte, error) {
	b, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaging, err)
	}
	return b, nil
}

// Release removes the staged file. It is safe to call more than once and on
// a nil Handle; only the first call does any work.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			h.relErr = fmt.Errorf("%w: removing %s: %v", ErrStaging, h.path, err)
			return
		}
		h.log.Debug().Str("path", h.path).Msg("released staging file")
	})
	return h.relErr
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
