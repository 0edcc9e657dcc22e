package pdf2docx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tdocx "github.com/tsawler/tabula/docx"

	"github.com/tsawler/pdf2docx/format"
	"github.com/tsawler/pdf2docx/internal/testpdf"
)

func docxText(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	r, err := tdocx.Open(path)
	require.NoError(t, err)
	defer r.Close()
	text, err := r.Text()
	require.NoError(t, err)
	return text
}

func TestOpen_Convert(t *testing.T) {
	res, err := Open(testpdf.Write(t, testpdf.Text("Hello World"))).Convert(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Pages: 1, TextBlocks: 1}, res.Stats)
	assert.Contains(t, docxText(t, res.Data), "Hello World")

	f, err := format.DetectFromReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	require.NoError(t, err)
	assert.Equal(t, format.DOCX, f)
}

func TestFromBytes_RuledTable(t *testing.T) {
	doc := testpdf.Document{Pages: []testpdf.Page{testpdf.Grid([][]string{{"a", "b"}, {"c", "d"}})}}

	res, err := FromBytes(doc.Bytes()).Convert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Tables)

	path := filepath.Join(t.TempDir(), "table.docx")
	require.NoError(t, os.WriteFile(path, res.Data, 0o600))
	r, err := tdocx.Open(path)
	require.NoError(t, err)
	defer r.Close()

	tables := r.Tables()
	require.Len(t, tables, 1)
	var grid [][]string
	for _, row := range tables[0].Rows {
		var cells []string
		for _, c := range row.Cells {
			cells = append(cells, strings.TrimSpace(c.Text))
		}
		grid = append(grid, cells)
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, grid)
}

func TestFromBytes_WithoutTables(t *testing.T) {
	doc := testpdf.Document{Pages: []testpdf.Page{testpdf.Grid([][]string{{"a", "b"}, {"c", "d"}})}}

	res, err := FromBytes(doc.Bytes()).WithoutTables().Convert(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Stats.Tables)
	assert.Contains(t, docxText(t, res.Data), "a")
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open("nonexistent.pdf").Convert(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestFromBytes(t *testing.T) {
	dir := t.TempDir()
	res, err := FromBytes(testpdf.Text("from memory").Bytes()).StagingDir(dir).Convert(context.Background())
	require.NoError(t, err)
	assert.Contains(t, docxText(t, res.Data), "from memory")

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "staged file must be released")
}

func TestFromBytes_CorruptLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	res, err := FromBytes(testpdf.Corrupt()).StagingDir(dir).Convert(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)

	var convErr *Error
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, -1, convErr.Page)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
	assert.True(t, strings.HasPrefix(err.Error(), "conversion failed: "))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestFromBytes_Encrypted(t *testing.T) {
	doc := testpdf.Text("secret")
	doc.Encrypt = true

	_, err := FromBytes(doc.Bytes()).StagingDir(t.TempDir()).Convert(context.Background())
	assert.ErrorIs(t, err, ErrEncrypted)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestFromReader_NilInput(t *testing.T) {
	_, err := FromReader(nil).Convert(context.Background())
	assert.Error(t, err)
}

func TestConverter_Immutable(t *testing.T) {
	base := Open("a.pdf")
	noImages := base.WithoutImages()
	high := noImages.Quality(QualityHigh).WithoutTables()

	assert.True(t, base.options.conv.IncludeImages)
	assert.True(t, base.options.conv.IncludeTables)
	assert.Equal(t, QualityBalanced, base.options.conv.Quality)

	assert.False(t, noImages.options.conv.IncludeImages)
	assert.True(t, noImages.options.conv.IncludeTables)

	assert.False(t, high.options.conv.IncludeImages)
	assert.False(t, high.options.conv.IncludeTables)
	assert.Equal(t, QualityHigh, high.options.conv.Quality)
}

func TestConverter_Progress(t *testing.T) {
	var events []Progress
	_, err := Open(testpdf.Write(t, testpdf.Text("x"))).
		OnProgress(func(p Progress) { events = append(events, p) }).
		Convert(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, 100, events[len(events)-1].Percent)
}

func TestConverter_Title(t *testing.T) {
	assert.Equal(t, "report", Open("/tmp/report.pdf").title())
	assert.Equal(t, "Custom", Open("/tmp/report.pdf").Title("Custom").title())
	assert.Equal(t, "", FromBytes(nil).title())
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "report_converted.docx", OutputName("report.PDF"))
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, errors.New("boom")) })
}
