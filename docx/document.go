package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// EMUsPerInch converts inches to DrawingML English Metric Units.
	EMUsPerInch = 914400

	// DefaultImageWidth is the display width of pictures, in inches.
	DefaultImageWidth = 5.0

	// textWidthTwips is the usable width of a US Letter page with
	// one-inch margins.
	textWidthTwips = 9360
)

var (
	// ErrSealed is returned by every mutating call once the document has
	// been serialized.
	ErrSealed = errors.New("docx: document already serialized")

	// ErrNotRectangular is returned by AddTable when rows differ in length.
	ErrNotRectangular = errors.New("docx: table rows differ in length")

	// ErrEmptyTable is returned by AddTable for a table without cells.
	ErrEmptyTable = errors.New("docx: table has no cells")

	// ErrUnsupportedImage is returned by AddPicture for formats a word
	// processor cannot display.
	ErrUnsupportedImage = errors.New("docx: unsupported image format")
)

// Option configures a Document.
type Option func(*Document)

// WithTitle sets the dc:title core property.
func WithTitle(title string) Option {
	return func(d *Document) { d.title = title }
}

// WithCreator sets the creator recorded in the document properties.
func WithCreator(creator string) Option {
	return func(d *Document) { d.creator = creator }
}

// WithImageWidth sets the display width of pictures in inches. Values <= 0
// are ignored.
func WithImageWidth(inches float64) Option {
	return func(d *Document) {
		if inches > 0 {
			d.imageWidth = int64(inches * EMUsPerInch)
		}
	}
}

// WithClock overrides the time source used for the created timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Document) { d.now = now }
}

// Document is an in-memory DOCX package under construction. It is not safe
// for concurrent use.
type Document struct {
	title      string
	creator    string
	imageWidth int64
	now        func() time.Time

	blocks []any
	media  []mediaPart
	counts Counts
	sealed bool
}

// Counts reports how many blocks of each kind were appended.
type Counts struct {
	Paragraphs int
	Tables     int
	Pictures   int
	PageBreaks int
}

type mediaPart struct {
	name        string
	relID       string
	ext         string
	contentType string
	data        []byte
}

// New returns an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		creator:    "pdf2docx",
		imageWidth: int64(DefaultImageWidth * EMUsPerInch),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Counts returns the number of blocks appended so far.
func (d *Document) Counts() Counts {
	return d.counts
}

// Len returns the total number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// Sealed reports whether the document has been serialized.
func (d *Document) Sealed() bool {
	return d.sealed
}

// AddParagraph appends one paragraph. Line breaks inside text become soft
// line breaks within the paragraph and tabs become tab stops.
func (d *Document) AddParagraph(text string) error {
	if d.sealed {
		return ErrSealed
	}
	d.blocks = append(d.blocks, newParagraph(Sanitize(text)))
	d.counts.Paragraphs++
	return nil
}

// AddTable appends a table with len(rows) rows and len(rows[0]) columns.
// Every row must have the same length.
func (d *Document) AddTable(rows [][]string) error {
	if d.sealed {
		return ErrSealed
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrEmptyTable
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotRectangular, i, len(row), cols)
		}
	}

	colWidth := textWidthTwips / cols
	tbl := tableXML{
		Props: tablePropsXML{
			Style: valXML{Val: "TableGrid"},
			Width: widthXML{W: 0, Type: "auto"},
		},
	}
	tbl.Grid.Cols = make([]gridColXML, cols)
	for i := range tbl.Grid.Cols {
		tbl.Grid.Cols[i] = gridColXML{W: colWidth}
	}
	tbl.Rows = make([]tableRowXML, len(rows))
	for r, row := range rows {
		cells := make([]tableCellXML, cols)
		for c, text := range row {
			cells[c] = tableCellXML{
				Props:      cellPropsXML{Width: widthXML{W: colWidth, Type: "dxa"}},
				Paragraphs: []paragraphXML{newParagraph(Sanitize(text))},
			}
		}
		tbl.Rows[r] = tableRowXML{Cells: cells}
	}

	d.blocks = append(d.blocks, tbl)
	d.counts.Tables++
	return nil
}

// AddPicture appends an inline picture in its own paragraph. format is
// "png", "jpeg" or "gif"; width and height are the pixel dimensions and
// only fix the aspect ratio. The picture is displayed at the configured
// image width.
func (d *Document) AddPicture(data []byte, format string, width, height int) error {
	if d.sealed {
		return ErrSealed
	}
	mt, ok := mediaTypes[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, format)
	}
	if len(data) == 0 || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: empty image or zero dimensions", ErrUnsupportedImage)
	}

	n := len(d.media) + 1
	part := mediaPart{
		name:        fmt.Sprintf("image%d.%s", n, mt.ext),
		relID:       fmt.Sprintf("rIdImage%d", n),
		ext:         mt.ext,
		contentType: mt.contentType,
		data:        data,
	}
	d.media = append(d.media, part)

	cx := d.imageWidth
	cy := cx * int64(height) / int64(width)
	props := nvPropsXML{ID: n, Name: fmt.Sprintf("Picture %d", n)}

	drawing := &drawingXML{Inline: inlineXML{
		Extent:  extentXML{CX: cx, CY: cy},
		DocPr:   props,
		FramePr: graphicFramePrXML{Locks: graphicFrameLocksXML{NoChangeAspect: 1}},
		Graphic: graphicXML{Data: graphicDataXML{
			URI: nsPic,
			Pic: picXML{
				NvPicPr:  nvPicPrXML{CNvPr: nvPropsXML{ID: 0, Name: part.name}},
				BlipFill: blipFillXML{Blip: blipXML{Embed: part.relID}},
				SpPr: spPrXML{
					Xfrm: xfrmXML{Ext: extentXML{CX: cx, CY: cy}},
					Geom: prstGeomXML{Prst: "rect"},
				},
			},
		}},
	}}

	d.blocks = append(d.blocks, paragraphXML{Runs: []runXML{{Drawing: drawing}}})
	d.counts.Pictures++
	return nil
}

// AddPageBreak appends a paragraph holding a hard page break.
func (d *Document) AddPageBreak() error {
	if d.sealed {
		return ErrSealed
	}
	d.blocks = append(d.blocks, paragraphXML{Runs: []runXML{{Break: &breakXML{Type: "page"}}}})
	d.counts.PageBreaks++
	return nil
}

// Bytes serializes the package and seals the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the package to w and seals the document. The document
// is sealed even when writing fails.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.sealed {
		return 0, ErrSealed
	}
	d.sealed = true

	parts, err := d.parts()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return cw.n, fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := f.Write(p.data); err != nil {
			return cw.n, fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("closing package: %w", err)
	}
	return cw.n, nil
}

type namedPart struct {
	name string
	data []byte
}

// parts renders every package part in the order they are stored.
func (d *Document) parts() ([]namedPart, error) {
	types := contentTypesXML{
		NS: nsContentTypes,
		Defaults: []defaultTypeXML{
			{Extension: "rels", ContentType: ctRels},
			{Extension: "xml", ContentType: ctXML},
		},
		Overrides: []overrideTypeXML{
			{PartName: "/" + partDocument, ContentType: ctDocument},
			{PartName: "/" + partStyles, ContentType: ctStyles},
			{PartName: "/" + partCore, ContentType: ctCore},
			{PartName: "/" + partApp, ContentType: ctApp},
		},
	}
	seen := map[string]bool{}
	for _, m := range d.media {
		if !seen[m.ext] {
			seen[m.ext] = true
			types.Defaults = append(types.Defaults, defaultTypeXML{Extension: m.ext, ContentType: m.contentType})
		}
	}

	rootRels := relationshipsXML{
		NS: nsRelationships,
		Relationships: []relationshipXML{
			{ID: "rId1", Type: relOfficeDocument, Target: partDocument},
			{ID: "rId2", Type: relCoreProps, Target: partCore},
			{ID: "rId3", Type: relExtendedProps, Target: partApp},
		},
	}

	docRels := relationshipsXML{
		NS:            nsRelationships,
		Relationships: []relationshipXML{{ID: "rIdStyles", Type: relStyles, Target: "styles.xml"}},
	}
	for _, m := range d.media {
		docRels.Relationships = append(docRels.Relationships, relationshipXML{
			ID:     m.relID,
			Type:   relImage,
			Target: "media/" + m.name,
		})
	}

	body := documentXML{
		NSW:   nsW,
		NSR:   nsR,
		NSWP:  nsWP,
		NSA:   nsA,
		NSPic: nsPic,
		Body: bodyXML{
			Blocks: d.blocks,
			Section: sectionPrXML{
				Size: pageSizeXML{W: 12240, H: 15840},
				Margin: pageMarginXML{
					Top: 1440, Right: 1440, Bottom: 1440, Left: 1440,
					Header: 720, Footer: 720,
				},
			},
		},
	}

	parts := make([]namedPart, 0, 7+len(d.media))
	for _, x := range []struct {
		name string
		v    any
	}{
		{partContentTypes, types},
		{partRootRels, rootRels},
		{partDocument, body},
		{partDocumentRels, docRels},
	} {
		data, err := marshalPart(x.v)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", x.name, err)
		}
		parts = append(parts, namedPart{x.name, data})
	}
	parts = append(parts,
		namedPart{partStyles, []byte(stylesPart)},
		namedPart{partCore, corePart(d.title, d.creator, d.now())},
		namedPart{partApp, appPart(d.creator)},
	)
	for _, m := range d.media {
		parts = append(parts, namedPart{mediaDir + m.name, m.data})
	}
	return parts, nil
}

// newParagraph builds a paragraph from sanitized text.
func newParagraph(text string) paragraphXML {
	var runs []runXML
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			runs = append(runs, runXML{Break: &breakXML{}})
		}
		for j, segment := range strings.Split(line, "\t") {
			if j > 0 {
				runs = append(runs, runXML{Tab: &emptyXML{}})
			}
			if segment != "" {
				runs = append(runs, runXML{Text: &textXML{Space: "preserve", Value: segment}})
			}
		}
	}
	return paragraphXML{Runs: runs}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
