// Package web serves the browser upload, preview and download workflow and
// a small JSON API over the same conversion.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/tsawler/pdf2docx/config"
	"github.com/tsawler/pdf2docx/pdfsource"
	"github.com/tsawler/pdf2docx/preview"
	"github.com/tsawler/pdf2docx/stage"
)

// Option configures a Server.
type Option func(*Server)

// WithRecognizer enables the OCR fallback for scanned pages.
func WithRecognizer(r pdfsource.Recognizer) Option {
	return func(s *Server) { s.ocr = r }
}

// Server is the HTTP front end. Each request stages its own upload and
// runs its own conversion; nothing is shared between requests.
type Server struct {
	cfg      *config.Config
	log      zerolog.Logger
	stager   *stage.Stager
	previews *preview.Builder
	ocr      pdfsource.Recognizer
	pages    *template.Template
	static   fs.FS
	handler  http.Handler
}

// NewServer parses the embedded templates and builds the router.
func NewServer(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}

	log = log.With().Str("component", "web").Logger()
	s := &Server{
		cfg:    cfg,
		log:    log,
		stager: stage.New(cfg.Convert.StagingDir, log),
		previews: preview.NewBuilder(preview.Config{
			ThumbnailWidth: cfg.Preview.ThumbnailWidth,
			ThumbnailDPI:   cfg.Preview.ThumbnailDPI,
			SnippetChars:   cfg.Preview.SnippetChars,
		}, log),
		pages:  pages,
		static: static,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln, at most server.max_connections at a
// time, until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if n := s.cfg.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().
			Str("addr", ln.Addr().String()).
			Int("max_connections", s.cfg.Server.MaxConnections).
			Msg("HTTP server listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("graceful shutdown failed")
		return srv.Close()
	}
	s.log.Info().Msg("server stopped")
	return nil
}
