package model

import "strings"

// PageRecord holds everything extracted from a single page.
type PageRecord struct {
	Index  int // 0-based page index
	Text   string
	Tables []TableRecord
	Images []ImageRecord
}

// HasText reports whether the page produced any non-whitespace text.
func (p *PageRecord) HasText() bool {
	return strings.TrimSpace(p.Text) != ""
}

// Want tells a source which optional artifacts the caller will consume, so
// that it can skip detection work nobody asked for.
type Want struct {
	Tables bool
	Images bool
}

// TableRecord is a grid of cell strings in reading order.
type TableRecord struct {
	Rows [][]string
}

// RowCount returns the number of rows.
func (t TableRecord) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns, taken from the header row.
func (t TableRecord) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// IsEmpty reports whether the table has no rows or a zero-width header.
func (t TableRecord) IsEmpty() bool {
	return t.RowCount() == 0 || t.ColCount() == 0
}

// IsRectangular reports whether every row has as many cells as the header.
func (t TableRecord) IsRectangular() bool {
	cols := t.ColCount()
	for _, row := range t.Rows {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Normalize returns a rectangular copy of the table and the number of rows
// that had to be padded or truncated to match the header width.
func (t TableRecord) Normalize() (TableRecord, int) {
	cols := t.ColCount()
	out := TableRecord{Rows: make([][]string, len(t.Rows))}
	adjusted := 0

	for i, row := range t.Rows {
		normalized := make([]string, cols)
		copy(normalized, row)
		if len(row) != cols {
			adjusted++
		}
		out.Rows[i] = normalized
	}

	return out, adjusted
}

// Compact returns a copy of the table without the rows and columns in which
// every cell is blank. Geometric detection reports the gaps between text
// columns and lines as cells of their own; those carry no content.
func (t TableRecord) Compact() TableRecord {
	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	keepCol := make([]bool, width)
	for _, row := range t.Rows {
		for j, cell := range row {
			if strings.TrimSpace(cell) != "" {
				keepCol[j] = true
			}
		}
	}

	out := TableRecord{}
	for _, row := range t.Rows {
		var cells []string
		blank := true
		for j, cell := range row {
			if !keepCol[j] {
				continue
			}
			cells = append(cells, cell)
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
		}
		if !blank {
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}

// ImageRecord is an embedded image as it was found in the source: encoded
// bytes plus whatever the source knows about them. Format is a hint such as
// "jpeg", "png" or "raw"; decoding is left to the consumer.
type ImageRecord struct {
	Name   string
	Format string
	Data   []byte
	Width  int
	Height int
}
