package pdfsource

import (
	"bytes"
	"sort"

	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"

	"github.com/tsawler/pdf2docx/imaging"
	"github.com/tsawler/pdf2docx/model"
)

// Image formats reported in model.ImageRecord.Format.
const (
	formatJPEG = "jpeg"
	formatPNG  = "png"
	formatJPX  = "jpx"
	formatRaw  = "raw"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	jp2Magic  = []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}
	j2kMagic  = []byte{0xFF, 0x4F, 0xFF, 0x51}
)

// extractImages returns the image XObjects of page in the order the page
// draws them.
func (s *Source) extractImages(page *pages.Page, content []byte) ([]model.ImageRecord, error) {
	images, err := s.r.ExtractPageImages(page)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	images = orderImages(images, drawOrder(content))

	out := make([]model.ImageRecord, 0, len(images))
	for _, img := range images {
		rec := imageRecord(img)
		s.log.Debug().
			Str("name", rec.Name).
			Str("format", rec.Format).
			Str("filter", img.Filter).
			Int("width", rec.Width).
			Int("height", rec.Height).
			Msg("extracted image")
		out = append(out, rec)
	}
	return out, nil
}

// drawOrder lists XObject names in the order of their Do operators. A
// content stream that does not parse yields no order.
func drawOrder(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return nil
	}
	var names []string
	for _, op := range ops {
		if op.Operator != "Do" || len(op.Operands) == 0 {
			continue
		}
		if name, ok := op.Operands[0].(core.Name); ok {
			names = append(names, string(name))
		}
	}
	return names
}

// orderImages sorts images by first use in order; images never drawn come
// last, sorted by name.
func orderImages(images []reader.PageImage, order []string) []reader.PageImage {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		if _, seen := rank[name]; !seen {
			rank[name] = i
		}
	}
	out := append([]reader.PageImage(nil), images...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name]
		rj, jok := rank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i].Name < out[j].Name
		}
	})
	return out
}

// imageRecord converts an extracted XObject into encoded bytes. JPEG data is
// passed through; raw samples are rendered to PNG. Data that cannot be
// rendered is kept as-is and will fail to decode downstream.
func imageRecord(img reader.PageImage) (rec model.ImageRecord) {
	rec = model.ImageRecord{Name: img.Name, Width: img.Width, Height: img.Height}

	switch {
	case bytes.HasPrefix(img.Data, jpegMagic):
		rec.Format, rec.Data = formatJPEG, img.Data
		return rec
	case img.Filter == "JPXDecode" || bytes.HasPrefix(img.Data, jp2Magic) || bytes.HasPrefix(img.Data, j2kMagic):
		rec.Format, rec.Data = formatJPX, img.Data
		return rec
	}

	if img.Width <= 0 || img.Height <= 0 || int64(img.Width)*int64(img.Height) > imaging.MaxPixels {
		rec.Format, rec.Data = formatRaw, img.Data
		return rec
	}

	defer func() {
		if p := recover(); p != nil {
			rec.Format, rec.Data = formatRaw, img.Data
		}
	}()
	png, err := img.ToPNG()
	if err != nil {
		rec.Format, rec.Data = formatRaw, img.Data
		return rec
	}
	rec.Format, rec.Data = formatPNG, png
	return rec
}

