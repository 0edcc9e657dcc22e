package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/tsawler/pdf2docx"
	"github.com/tsawler/pdf2docx/format"
	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/preview"
	"github.com/tsawler/pdf2docx/stage"
)

// Hints shown under a failed conversion.
var remediationHints = []string{
	"Check if the PDF is password protected",
	"Ensure the file isn't corrupted",
	"Try a simpler document first",
}

// Conversion statistics headers set by the API.
const (
	headerID            = "X-Conversion-Id"
	headerPages         = "X-Conversion-Pages"
	headerImages        = "X-Conversion-Images"
	headerTables        = "X-Conversion-Tables"
	headerTextBlocks    = "X-Conversion-Text-Blocks"
	headerImagesSkipped = "X-Conversion-Images-Skipped"
	headerRowsAdjusted  = "X-Conversion-Rows-Adjusted"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newPage(s.cfg.ConvertOptions()))
}

func (s *Server) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	up, opts, err := s.readUpload(r, true)
	page := s.newPage(opts)
	if err != nil {
		page.Error = err.Error()
		s.render(w, r, statusFor(err), page)
		return
	}
	defer up.Close()

	page.FileName = up.name
	p, err := s.buildPreview(r.Context(), up)
	if err != nil {
		page.Error = err.Error()
		s.render(w, r, statusFor(err), page)
		return
	}
	page.Preview = newPreviewView(p)
	s.render(w, r, http.StatusOK, page)
}

func (s *Server) handleConvertPage(w http.ResponseWriter, r *http.Request) {
	up, opts, err := s.readUpload(r, true)
	page := s.newPage(opts)
	if err != nil {
		page.Error = err.Error()
		s.render(w, r, statusFor(err), page)
		return
	}
	defer up.Close()

	page.FileName = up.name
	res, events, err := s.convert(r, up, opts)
	if err != nil {
		page.Error = "Conversion failed: " + strings.TrimPrefix(err.Error(), "conversion failed: ")
		page.Hints = remediationHints
		page.Events = events
		s.render(w, r, statusFor(err), page)
		return
	}

	name := format.OutputName(up.name)
	page.Result = &resultView{
		Stats:    res.Stats,
		FileName: name,
		Size:     len(res.Data),
		Download: template.URL("data:" + format.DOCX.MediaType() + ";base64," +
			base64.StdEncoding.EncodeToString(res.Data)),
	}
	page.Events = events
	s.render(w, r, http.StatusOK, page)
}

func (s *Server) handleAPIPreview(w http.ResponseWriter, r *http.Request) {
	up, _, err := s.readUpload(r, false)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	defer up.Close()

	p, err := s.buildPreview(r.Context(), up)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	up, opts, err := s.readUpload(r, false)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	defer up.Close()

	res, _, err := s.convert(r, up, opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", format.DOCX.MediaType())
	h.Set("Content-Disposition", `attachment; filename="`+format.OutputName(up.name)+`"`)
	h.Set("Content-Length", strconv.Itoa(len(res.Data)))
	h.Set(headerID, res.ID)
	h.Set(headerPages, strconv.Itoa(res.Stats.Pages))
	h.Set(headerImages, strconv.Itoa(res.Stats.Images))
	h.Set(headerTables, strconv.Itoa(res.Stats.Tables))
	h.Set(headerTextBlocks, strconv.Itoa(res.Stats.TextBlocks))
	h.Set(headerImagesSkipped, strconv.Itoa(res.Stats.ImagesSkipped))
	h.Set(headerRowsAdjusted, strconv.Itoa(res.Stats.RowsAdjusted))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("client went away during download")
	}
}

// buildPreview stages the upload and renders its first page.
func (s *Server) buildPreview(ctx context.Context, up *upload) (*preview.Preview, error) {
	var p *preview.Preview
	err := s.stager.With(ctx, up.file, func(h *stage.Handle) error {
		p = s.previews.Build(ctx, h)
		return nil
	})
	return p, err
}

// convert runs one conversion under the configured timeout and returns the
// progress events it reported.
func (s *Server) convert(r *http.Request, up *upload, opts model.Options) (*pdf2docx.Result, []model.Progress, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Convert.Timeout)
	defer cancel()

	var events []model.Progress
	c := pdf2docx.FromReader(up.file).
		Options(opts).
		StagingDir(s.cfg.Convert.StagingDir).
		ImageWidth(s.cfg.Convert.ImageWidthInches).
		Title(strings.TrimSuffix(format.OutputName(up.name), format.OutputSuffix)).
		WithLogger(*hlog.FromRequest(r)).
		OnProgress(func(p model.Progress) { events = append(events, p) })
	if s.ocr != nil {
		c = c.WithOCR(s.ocr)
	}

	res, err := c.Convert(ctx)
	if err != nil {
		return nil, events, err
	}
	return res, events, nil
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		return ue.status
	case errors.Is(err, model.ErrSourceUnreadable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Hints []string `json:"hints,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error(), Kind: errorKind(err)}
	if status == http.StatusUnprocessableEntity {
		resp.Hints = remediationHints
	}
	writeJSON(w, status, resp)
}

func errorKind(err error) string {
	var ue *uploadError
	switch {
	case errors.As(err, &ue):
		return "bad_upload"
	case errors.Is(err, model.ErrEncrypted):
		return "encrypted"
	case errors.Is(err, model.ErrSourceUnreadable):
		return "unreadable"
	case errors.Is(err, stage.ErrStaging):
		return "staging"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
