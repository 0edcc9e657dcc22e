// Package ocr recognizes text in page images for PDFs that carry no text
// layer, such as scans.
//
// Recognition uses the Tesseract engine through gosseract and is only
// compiled in with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// Tesseract and its language data must be installed (brew install
// tesseract, or apt-get install tesseract-ocr). Without the tag every
// constructor returns [ErrOCRNotEnabled] and [Enabled] reports false.
package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"
