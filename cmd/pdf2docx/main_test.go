package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdf2docx/internal/testpdf"
	"github.com/tsawler/pdf2docx/model"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func copyPDF(t *testing.T, name string, doc testpdf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, doc.Bytes(), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pdf2docx dev"))
}

func TestConvert_JSONStats(t *testing.T) {
	in := copyPDF(t, "Hello.pdf", testpdf.Text("Hello World"))

	out, _, err := run(t, "convert", in, "--stats", "json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, model.Stats{Pages: 1, TextBlocks: 1}, report.Stats)
	assert.Equal(t, filepath.Join(filepath.Dir(in), "Hello_converted.docx"), report.Output)
	assert.Equal(t, "balanced", report.Quality)

	info, err := os.Stat(report.Output)
	require.NoError(t, err)
	assert.Equal(t, int64(report.Bytes), info.Size())
}

func TestConvert_YAMLStatsAndFlags(t *testing.T) {
	in := copyPDF(t, "in.pdf", testpdf.Text("x"))
	outPath := filepath.Join(t.TempDir(), "custom.docx")

	out, _, err := run(t, "convert", in, "-o", outPath, "--no-images", "--no-tables", "--quality", "fast", "--stats", "yaml")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, outPath, report.Output)
	assert.Equal(t, "fast", report.Quality)
	assert.FileExists(t, outPath)
}

func TestConvert_TextStats(t *testing.T) {
	in := copyPDF(t, "doc.pdf", testpdf.Text("x"))

	out, _, err := run(t, "convert", in, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversion complete")
	assert.Contains(t, out, "Pages:")
	assert.Contains(t, out, "Text Blocks:")
}

func TestConvert_Errors(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(corrupt, testpdf.Corrupt(), 0o600))
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hello"), 0o600))
	good := copyPDF(t, "good.pdf", testpdf.Text("x"))

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"corrupt", []string{"convert", corrupt, "-q"}, "conversion failed"},
		{"not a pdf", []string{"convert", notes}, "does not look like a PDF"},
		{"bad quality", []string{"convert", good, "--quality", "ultra"}, "unknown quality"},
		{"bad stats", []string{"convert", good, "--stats", "xml"}, "unknown stats format"},
		{"no args", []string{"convert"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(corrupt), "broken_converted.docx"))
	assert.True(t, os.IsNotExist(err), "no output for a failed conversion")
}

func TestPreview(t *testing.T) {
	in := copyPDF(t, "p.pdf", testpdf.Text("Preview text here"))
	thumb := filepath.Join(t.TempDir(), "thumb.png")

	out, errOut, err := run(t, "preview", in, "--chars", "7", "--thumbnail", thumb)
	require.NoError(t, err)
	assert.Equal(t, "Preview…\n", out)
	assert.Contains(t, errOut, "Thumbnail written")
	assert.FileExists(t, thumb)
}

func TestPreview_Corrupt(t *testing.T) {
	corrupt := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(corrupt, testpdf.Corrupt(), 0o600))

	_, errOut, err := run(t, "preview", corrupt)
	require.Error(t, err)
	assert.Contains(t, errOut, "Couldn't extract text preview")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "chatty", "version")
	assert.Error(t, err)
}

func TestStatsRenderer(t *testing.T) {
	for _, name := range []string{"", "text", "json", "yaml"} {
		_, err := statsRenderer(name)
		assert.NoError(t, err, name)
	}
}
