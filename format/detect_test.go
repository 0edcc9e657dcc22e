package format

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PDF, "PDF"},
		{DOCX, "DOCX"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_ExtensionAndMediaType(t *testing.T) {
	if PDF.Extension() != ".pdf" || DOCX.Extension() != ".docx" || Unknown.Extension() != "" {
		t.Error("unexpected extensions")
	}
	if PDF.MediaType() != "application/pdf" {
		t.Errorf("PDF.MediaType() = %q", PDF.MediaType())
	}
	if Unknown.MediaType() != "application/octet-stream" {
		t.Errorf("Unknown.MediaType() = %q", Unknown.MediaType())
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"document.pdf", PDF},
		{"document.PDF", PDF},
		{"/path/to/report.Pdf", PDF},
		{"document.docx", DOCX},
		{"document.txt", Unknown},
		{"pdf", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"pdf", []byte("%PDF-1.7\n"), PDF},
		{"pdf with bom", append([]byte{0xEF, 0xBB, 0xBF}, "%PDF-1.4"...), PDF},
		{"zip", []byte{'P', 'K', 3, 4, 0, 0}, Unknown},
		{"short", []byte("%P"), Unknown},
		{"empty", nil, Unknown},
		{"text", []byte("hello world"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF("scan.PDF", nil) {
		t.Error("extension alone should be enough")
	}
	if !IsPDF("upload.bin", []byte("%PDF-1.5")) {
		t.Error("magic alone should be enough")
	}
	if IsPDF("notes.txt", []byte("plain text")) {
		t.Error("text file accepted as PDF")
	}
}

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("<x/>")); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFromReader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"pdf", []byte("%PDF-1.7\n%%EOF"), PDF},
		{"docx", zipWith(t, "[Content_Types].xml", "word/document.xml"), DOCX},
		{"other zip", zipWith(t, "[Content_Types].xml", "xl/workbook.xml"), Unknown},
		{"text", []byte("nothing to see"), Unknown},
		{"empty", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFromReader(bytes.NewReader(tt.data), int64(len(tt.data)))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFromReader_BrokenZip(t *testing.T) {
	data := []byte{'P', 'K', 3, 4, 1, 2, 3}
	if _, err := DetectFromReader(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("expected error for truncated archive")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report_converted.docx"},
		{"REPORT.PDF", "REPORT_converted.docx"},
		{"archive.pdf.pdf", "archive.pdf_converted.docx"},
		{"notes", "notes_converted.docx"},
		{"slides.pptx", "slides.pptx_converted.docx"},
		{"/tmp/in/report.pdf", "report_converted.docx"},
		{`C:\Users\me\report.pdf`, "report_converted.docx"},
		{".pdf", "document_converted.docx"},
		{"", "document_converted.docx"},
	}

	for _, tt := range tests {
		if got := OutputName(tt.in); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
