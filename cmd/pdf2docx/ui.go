package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdf2docx/model"
)

// progressBar shows conversion progress as a percentage bar. A disabled
// bar ignores every call.
type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, name string, disabled bool) *progressBar {
	if disabled {
		return &progressBar{}
	}
	return &progressBar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)}
}

func (p *progressBar) update(ev model.Progress) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(ev.Message)
	_ = p.bar.Set(ev.Percent)
}

func (p *progressBar) finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Exit()
	}
}

type spinnerUI struct {
	s *spinner.Spinner
}

func newSpinner(w io.Writer, msg string) *spinnerUI {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	return &spinnerUI{s: s}
}

func (s *spinnerUI) start() { s.s.Start() }
func (s *spinnerUI) stop()  { s.s.Stop() }

func (s *spinnerUI) message(msg string) {
	s.s.Lock()
	s.s.Suffix = " " + msg
	s.s.Unlock()
}

func success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// statsReport is printed after a successful conversion.
type statsReport struct {
	Input   string      `json:"input" yaml:"input"`
	Output  string      `json:"output" yaml:"output"`
	ID      string      `json:"id" yaml:"id"`
	Quality string      `json:"quality" yaml:"quality"`
	Bytes   int         `json:"bytes" yaml:"bytes"`
	Stats   model.Stats `json:"stats" yaml:"stats"`
}

type statsFunc func(io.Writer, statsReport) error

func statsRenderer(name string) (statsFunc, error) {
	switch name {
	case "", "text":
		return renderText, nil
	case "json":
		return renderJSON, nil
	case "yaml":
		return renderYAML, nil
	default:
		return nil, fmt.Errorf("unknown stats format %q (want text, json or yaml)", name)
	}
}

func renderJSON(w io.Writer, r statsReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func renderYAML(w io.Writer, r statsReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func renderText(w io.Writer, r statsReport) error {
	success(w, "Conversion complete: %s", r.Output)
	badge := color.New(color.FgCyan, color.Bold)
	rows := []struct {
		label string
		value int
	}{
		{"Pages", r.Stats.Pages},
		{"Images", r.Stats.Images},
		{"Tables", r.Stats.Tables},
		{"Text Blocks", r.Stats.TextBlocks},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %-12s %s\n", row.label+":", badge.Sprint(row.value))
	}
	if r.Stats.ImagesSkipped > 0 {
		warn(w, "%d image(s) could not be decoded and were skipped", r.Stats.ImagesSkipped)
	}
	if r.Stats.RowsAdjusted > 0 {
		fmt.Fprintf(w, "  %d table row(s) padded or truncated\n", r.Stats.RowsAdjusted)
	}
	return nil
}
