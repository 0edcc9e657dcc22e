package pdf2docx

import (
	"github.com/rs/zerolog"

	"github.com/tsawler/pdf2docx/docx"
	"github.com/tsawler/pdf2docx/model"
	"github.com/tsawler/pdf2docx/pdfsource"
)

// convertOptions holds the settings a Converter applies.
type convertOptions struct {
	conv       model.Options
	imageWidth float64
	title      string
	stagingDir string
	log        zerolog.Logger
	ocr        pdfsource.Recognizer
	progress   model.ProgressFunc
}

func defaultOptions() convertOptions {
	return convertOptions{
		conv:       model.DefaultOptions(),
		imageWidth: docx.DefaultImageWidth,
		log:        zerolog.Nop(),
	}
}
