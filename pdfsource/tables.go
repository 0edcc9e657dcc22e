package pdfsource

import (
	"strings"

	"github.com/tsawler/tabula/graphicsstate"
	tmodel "github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/text"

	"github.com/tsawler/pdf2docx/model"
)

// detectTables runs the geometric detector over the text fragments and
// ruling lines of one page.
func (s *Source) detectTables(page *pages.Page, content []byte) ([]model.TableRecord, error) {
	fragments, err := s.r.ExtractTextFragments(page)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, nil
	}

	width, err := page.Width()
	if err != nil {
		width = 612
	}
	height, err := page.Height()
	if err != nil {
		height = 792
	}

	tp := tmodel.NewPage(width, height)
	tp.RawText = toModelFragments(fragments)
	tp.RawLines = rulingLines(content)

	found, err := s.detector.Detect(tp)
	if err != nil {
		return nil, err
	}
	return tableRecords(found), nil
}

func toModelFragments(fragments []text.TextFragment) []tmodel.TextFragment {
	out := make([]tmodel.TextFragment, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, tmodel.TextFragment{
			Text:     f.Text,
			BBox:     tmodel.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return out
}

// rulingLines returns the stroked lines and rectangles of a content stream.
// A stream the graphics extractor cannot follow simply yields no lines and
// detection falls back to text alignment.
func rulingLines(content []byte) []tmodel.Line {
	if len(content) == 0 {
		return nil
	}
	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(content); err != nil {
		return nil
	}
	return append(ge.ToModelLines(), ge.ToModelRectangles()...)
}

// tableRecords converts detected tables into trimmed string grids without
// blank rows or columns, dropping tables that hold no cells.
func tableRecords(found []*tmodel.Table) []model.TableRecord {
	var out []model.TableRecord
	for _, t := range found {
		if t == nil {
			continue
		}
		rows := make([][]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = strings.TrimSpace(c.Text)
			}
			rows = append(rows, cells)
		}
		rec := model.TableRecord{Rows: rows}.Compact()
		if rec.IsEmpty() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
