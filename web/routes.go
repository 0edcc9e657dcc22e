package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		level := zerolog.InfoLevel
		if status >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		hlog.FromRequest(r).WithLevel(level).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)
	if n := s.cfg.Server.MaxUploadBytes; n > 0 {
		r.Use(chimiddleware.RequestSize(n))
	}

	r.Get("/", s.handleIndex)
	r.Post("/preview", s.handlePreviewPage)
	r.Post("/convert", s.handleConvertPage)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(s.static)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/preview", s.handleAPIPreview)
		r.Post("/convert", s.handleAPIConvert)
	})

	return r
}
