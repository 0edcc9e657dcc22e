package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tdocx "github.com/tsawler/tabula/docx"
)

// readParts opens a serialized package and returns its parts by name.
func readParts(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = b
	}
	return parts
}

// bodyElements lists the local names of the direct children of w:body.
func bodyElements(t *testing.T, documentXML []byte) []string {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(documentXML))
	var names []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 3 {
				names = append(names, el.Name.Local)
			}
		case xml.EndElement:
			depth--
		}
	}
	return names
}

type parsedTables struct {
	Tables []struct {
		Rows []struct {
			Cells []struct {
				Texts []string `xml:"p>r>t"`
			} `xml:"tc"`
		} `xml:"tr"`
	} `xml:"body>tbl"`
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDocument_HelloWorld(t *testing.T) {
	doc := New(WithTitle("hello"))
	require.NoError(t, doc.AddParagraph("Hello World"))

	data, err := doc.Bytes()
	require.NoError(t, err)

	parts := readParts(t, data)
	for _, name := range []string{
		partContentTypes, partRootRels, partCore, partApp,
		partDocument, partStyles, partDocumentRels,
	} {
		assert.Contains(t, parts, name)
	}
	assert.Equal(t, []string{"p", "sectPr"}, bodyElements(t, parts[partDocument]))
	assert.Contains(t, string(parts[partCore]), "<dc:title>hello</dc:title>")

	r, err := tdocx.Open(writeTemp(t, data))
	require.NoError(t, err)
	defer r.Close()

	text, err := r.Text()
	require.NoError(t, err)
	assert.Equal(t, "Hello World", strings.TrimSpace(text))
}

func TestDocument_BlockOrder(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddParagraph("page one"))
	require.NoError(t, doc.AddTable([][]string{{"a", "b"}, {"c", "d"}}))
	require.NoError(t, doc.AddPicture(testPNG(t, 4, 2), "png", 4, 2))
	require.NoError(t, doc.AddPageBreak())
	require.NoError(t, doc.AddParagraph("page two"))

	assert.Equal(t, Counts{Paragraphs: 2, Tables: 1, Pictures: 1, PageBreaks: 1}, doc.Counts())
	assert.Equal(t, 5, doc.Len())

	data, err := doc.Bytes()
	require.NoError(t, err)

	parts := readParts(t, data)
	assert.Equal(t, []string{"p", "tbl", "p", "p", "p", "sectPr"}, bodyElements(t, parts[partDocument]))
	assert.Contains(t, string(parts[partDocument]), `w:type="page"`)
}

func TestDocument_TableRoundTrip(t *testing.T) {
	rows := [][]string{
		{"Name", "Qty", "Price"},
		{"apple", "3", "1.20"},
		{"pear & plum", "<5>", ""},
	}

	doc := New()
	require.NoError(t, doc.AddTable(rows))
	data, err := doc.Bytes()
	require.NoError(t, err)

	var got parsedTables
	require.NoError(t, xml.Unmarshal(readParts(t, data)[partDocument], &got))
	require.Len(t, got.Tables, 1)
	require.Len(t, got.Tables[0].Rows, 3)

	for r, row := range got.Tables[0].Rows {
		require.Len(t, row.Cells, 3)
		for c, cell := range row.Cells {
			assert.Equal(t, rows[r][c], strings.Join(cell.Texts, ""), "cell %d,%d", r, c)
		}
	}
}

func TestDocument_AddTableErrors(t *testing.T) {
	doc := New()

	assert.ErrorIs(t, doc.AddTable(nil), ErrEmptyTable)
	assert.ErrorIs(t, doc.AddTable([][]string{{}}), ErrEmptyTable)
	assert.ErrorIs(t, doc.AddTable([][]string{{"a", "b"}, {"c"}}), ErrNotRectangular)
	assert.Zero(t, doc.Counts().Tables)
}

func TestDocument_Picture(t *testing.T) {
	doc := New(WithImageWidth(2))
	require.NoError(t, doc.AddPicture(testPNG(t, 200, 100), "PNG", 200, 100))

	data, err := doc.Bytes()
	require.NoError(t, err)
	parts := readParts(t, data)

	assert.Contains(t, parts, "word/media/image1.png")
	assert.Contains(t, string(parts[partContentTypes]), `Extension="png"`)
	assert.Contains(t, string(parts[partDocumentRels]), `Target="media/image1.png"`)

	// 2in wide, aspect 2:1.
	assert.Contains(t, string(parts[partDocument]), `cx="1828800" cy="914400"`)
}

func TestDocument_PictureErrors(t *testing.T) {
	doc := New()

	err := doc.AddPicture([]byte("x"), "tiff", 1, 1)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))

	err = doc.AddPicture(nil, "png", 1, 1)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))

	err = doc.AddPicture([]byte("x"), "png", 0, 10)
	assert.True(t, errors.Is(err, ErrUnsupportedImage))

	assert.Zero(t, doc.Counts().Pictures)
}

func TestDocument_NoMediaWithoutPictures(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddParagraph("text only"))
	data, err := doc.Bytes()
	require.NoError(t, err)

	for name := range readParts(t, data) {
		assert.False(t, strings.HasPrefix(name, mediaDir), name)
	}
}

func TestDocument_Sealed(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddParagraph("once"))
	_, err := doc.Bytes()
	require.NoError(t, err)
	assert.True(t, doc.Sealed())

	assert.ErrorIs(t, doc.AddParagraph("twice"), ErrSealed)
	assert.ErrorIs(t, doc.AddTable([][]string{{"a"}}), ErrSealed)
	assert.ErrorIs(t, doc.AddPicture([]byte{1}, "png", 1, 1), ErrSealed)
	assert.ErrorIs(t, doc.AddPageBreak(), ErrSealed)

	_, err = doc.Bytes()
	assert.ErrorIs(t, err, ErrSealed)
}

func TestDocument_WriteToCountsBytes(t *testing.T) {
	doc := New(WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }))
	require.NoError(t, doc.AddParagraph("x"))

	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, buf.Len(), n)
	assert.Contains(t, string(readParts(t, buf.Bytes())[partCore]), "2024-01-02T03:04:05Z")
}

func TestDocument_MultilineParagraph(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddParagraph("first line\nsecond\tcolumn"))
	data, err := doc.Bytes()
	require.NoError(t, err)

	r, err := tdocx.Open(writeTemp(t, data))
	require.NoError(t, err)
	defer r.Close()

	text, err := r.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "first line")
	assert.Contains(t, text, "second")
	assert.Contains(t, text, "column")

	body := string(readParts(t, data)[partDocument])
	assert.Contains(t, body, "<w:br></w:br>")
	assert.Contains(t, body, "<w:tab></w:tab>")
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello World", "Hello World"},
		{"control characters removed", "a\x00b\x07c\x1fd", "abcd"},
		{"tabs and newlines kept", "a\tb\nc", "a\tb\nc"},
		{"crlf folded", "a\r\nb\rc", "a\nb\nc"},
		{"nfc", "e\u0301", "\u00e9"},
		{"invalid utf8 replaced", "a\xffb", "a\ufffdb"},
		{"noncharacter removed", "a\ufffeb", "ab"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestDocument_ParagraphIsSanitized(t *testing.T) {
	doc := New()
	require.NoError(t, doc.AddParagraph("bad\x0bchar"))
	data, err := doc.Bytes()
	require.NoError(t, err)

	body := readParts(t, data)[partDocument]
	assert.NoError(t, xml.Unmarshal(body, new(struct{})))
	assert.Contains(t, string(body), "badchar")
}
