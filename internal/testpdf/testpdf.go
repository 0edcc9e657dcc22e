// Package testpdf builds small, well-formed PDF files for tests: text set in
// Helvetica, image XObjects and an optional encryption dictionary. Cross
// reference offsets are computed exactly so that strict readers accept the
// output.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Line is one run of text drawn at (X, Y) in points.
type Line struct {
	X, Y float64
	Size float64
	Text string
}

// Image is an image XObject placed on the page. Data is written as-is; set
// Filter to "DCTDecode" for JPEG bytes.
type Image struct {
	Name       string
	Width      int
	Height     int
	ColorSpace string
	BPC        int
	Filter     string
	Data       []byte

	// Placement in points.
	X, Y, W, H float64
}

// Page is one page. Zero Width and Height mean US Letter.
type Page struct {
	Width, Height float64
	Lines         []Line
	Images        []Image

	// Rules are horizontal or vertical lines stroked on the page, given
	// as x1, y1, x2, y2.
	Rules [][4]float64
}

// Document describes a whole file.
type Document struct {
	Pages   []Page
	Encrypt bool
}

// Text returns a single-page document holding one line of text.
func Text(s string) Document {
	return Document{Pages: []Page{{Lines: []Line{{X: 72, Y: 720, Size: 12, Text: s}}}}}
}

// Grid returns a page holding a ruled table with one cell per entry of
// cells. Columns are 100pt wide and rows 30pt high, starting at (100, 700).
func Grid(cells [][]string) Page {
	const (
		left, top = 100.0, 700.0
		colW      = 100.0
		rowH      = 30.0
	)
	cols := 0
	for _, row := range cells {
		cols = max(cols, len(row))
	}
	right := left + colW*float64(cols)
	bottom := top - rowH*float64(len(cells))

	var p Page
	for i := 0; i <= len(cells); i++ {
		y := top - rowH*float64(i)
		p.Rules = append(p.Rules, [4]float64{left, y, right, y})
	}
	for j := 0; j <= cols; j++ {
		x := left + colW*float64(j)
		p.Rules = append(p.Rules, [4]float64{x, bottom, x, top})
	}
	for i, row := range cells {
		for j, s := range row {
			p.Lines = append(p.Lines, Line{
				X:    left + colW*float64(j) + 40,
				Y:    top - rowH*float64(i) - 20,
				Size: 12,
				Text: s,
			})
		}
	}
	return p
}

// Corrupt returns bytes that no PDF reader accepts.
func Corrupt() []byte {
	return []byte("this is not a PDF file at all\n")
}

// Write stores the document in a temporary file and returns its path.
func Write(t testing.TB, d Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdf")
	if err := os.WriteFile(path, d.Bytes(), 0o600); err != nil {
		t.Fatalf("writing test PDF: %v", err)
	}
	return path
}

// Bytes renders the document.
func (d Document) Bytes() []byte {
	var objects []string

	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // filled in below
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, p := range d.Pages {
		width, height := p.Width, p.Height
		if width == 0 {
			width = 612
		}
		if height == 0 {
			height = 792
		}

		var xobjects []string
		var content strings.Builder
		for _, r := range p.Rules {
			fmt.Fprintf(&content, "%g %g m %g %g l S\n", r[0], r[1], r[2], r[3])
		}
		for _, img := range p.Images {
			ref := add(imageObject(img))
			xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", img.Name, ref))
			fmt.Fprintf(&content, "q %g 0 0 %g %g %g cm /%s Do Q\n", img.W, img.H, img.X, img.Y, img.Name)
		}
		for _, l := range p.Lines {
			size := l.Size
			if size == 0 {
				size = 12
			}
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, l.X, l.Y, escape(l.Text))
		}

		contents := add(stream("", []byte(content.String())))

		resources := fmt.Sprintf("/Font << /F1 %d 0 R >>", font)
		if len(xobjects) > 0 {
			resources += " /XObject << " + strings.Join(xobjects, " ") + " >>"
		}
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g] /Resources << %s >> /Contents %d 0 R >>",
			pagesObj, width, height, resources, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	encrypt := 0
	if d.Encrypt {
		encrypt = add("<< /Filter /Standard /V 1 /R 2 /O (0123456789abcdef0123456789abcdef) /U (0123456789abcdef0123456789abcdef) /P -44 >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	trailer := fmt.Sprintf("/Size %d /Root %d 0 R", len(objects)+1, catalog)
	if encrypt > 0 {
		trailer += fmt.Sprintf(" /Encrypt %d 0 R /ID [<00112233445566778899aabbccddeeff> <00112233445566778899aabbccddeeff>]", encrypt)
	}
	fmt.Fprintf(&buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return buf.Bytes()
}

func imageObject(img Image) string {
	cs := img.ColorSpace
	if cs == "" {
		cs = "DeviceRGB"
	}
	bpc := img.BPC
	if bpc == 0 {
		bpc = 8
	}
	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d",
		img.Width, img.Height, cs, bpc)
	if img.Filter != "" {
		dict += " /Filter /" + img.Filter
	}
	return stream(dict, img.Data)
}

func stream(dict string, data []byte) string {
	if dict != "" {
		dict += " "
	}
	return fmt.Sprintf("<< %s/Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
