// Package format recognises the document formats pdf2docx reads and writes
// and derives output file names.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format is a document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// DOCX indicates a Word (.docx) document.
	DOCX
)

// OutputSuffix is appended to the base name of a converted document.
const OutputSuffix = "_converted.docx"

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
)

func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case DOCX:
		return "DOCX"
	default:
		return "Unknown"
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case DOCX:
		return ".docx"
	default:
		return ""
	}
}

// MediaType returns the MIME type for the format.
func (f Format) MediaType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

// Detect determines the format from a file name extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	default:
		return Unknown
	}
}

// DetectFromMagic checks leading bytes. A ZIP archive is reported as
// Unknown since telling DOCX apart needs the archive directory; use
// DetectFromReader for that.
func DetectFromMagic(data []byte) Format {
	if bytes.HasPrefix(skipBOM(data), pdfMagic) {
		return PDF
	}
	return Unknown
}

// skipBOM drops a UTF-8 byte order mark some tools prepend to PDF files.
func skipBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// IsPDF reports whether an upload looks like a PDF, either by name or by
// its first bytes. head may be nil.
func IsPDF(filename string, head []byte) bool {
	return Detect(filename) == PDF || DetectFromMagic(head) == PDF
}

// DetectFromReader inspects content and can tell a DOCX package from any
// other ZIP archive.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 8)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if DetectFromMagic(magic) == PDF {
		return PDF, nil
	}
	if bytes.HasPrefix(magic, zipMagic) {
		return detectZIPFormat(r, size)
	}
	return Unknown, nil
}

func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	var types, document bool
	for _, f := range zr.File {
		switch f.Name {
		case "[Content_Types].xml":
			types = true
		case "word/document.xml":
			document = true
		}
	}
	if types && document {
		return DOCX, nil
	}
	return Unknown, nil
}

// OutputName returns the download name for a converted document: the base
// name with a trailing ".pdf" removed, in any case, followed by
// OutputSuffix. Directory components are dropped.
func OutputName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" {
		base = "document"
	}
	return base + OutputSuffix
}
