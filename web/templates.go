package web

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/preview"
)

//go:embed templates/*.html static/*
var assets embed.FS

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"kb": func(n int) string { return fmt.Sprintf("%.1f KB", float64(n)/1024) },
	}).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return t, nil
}

// pageData feeds templates/page.html.
type pageData struct {
	Options   model.Options
	Qualities []qualityOption
	Features  []feature
	FileName  string
	Preview   *previewView
	Result    *resultView
	Events    []model.Progress
	Error     string
	Hints     []string
}

type qualityOption struct {
	Value    string
	Label    string
	Selected bool
}

type feature struct {
	Title string
	Text  string
}

var features = []feature{
	{"Table Recognition", "Advanced table detection with proper formatting"},
	{"Image Preservation", "High-quality image extraction with scaling"},
	{"Layout Retention", "Improved text layout preservation"},
}

type previewView struct {
	Thumbnail template.URL
	Text      string
	Warnings  []string
}

type resultView struct {
	Stats    model.Stats
	FileName string
	Size     int
	Download template.URL
}

func (s *Server) newPage(opts model.Options) *pageData {
	qs := model.Qualities()
	options := make([]qualityOption, len(qs))
	for i, q := range qs {
		options[i] = qualityOption{Value: q.Slug(), Label: q.String(), Selected: q == opts.Quality}
	}
	return &pageData{Options: opts, Qualities: options, Features: features}
}

func newPreviewView(p *preview.Preview) *previewView {
	v := &previewView{Text: p.Text, Warnings: p.Warnings}
	if len(p.Thumbnail) > 0 {
		v.Thumbnail = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.Thumbnail))
	}
	return v
}

// render executes the page template into a buffer so that a template error
// still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "page.html", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("rendering page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
