package model

import "fmt"

// Stats summarises what a conversion extracted.
type Stats struct {
	Pages      int `json:"pages" yaml:"pages"`
	Images     int `json:"images" yaml:"images"`
	Tables     int `json:"tables" yaml:"tables"`
	TextBlocks int `json:"text_blocks" yaml:"text_blocks"`

	// ImagesSkipped counts embedded images that could not be decoded and
	// were left out of the output.
	ImagesSkipped int `json:"images_skipped" yaml:"images_skipped"`

	// RowsAdjusted counts table rows padded or truncated to the header width.
	RowsAdjusted int `json:"rows_adjusted" yaml:"rows_adjusted"`
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("pages=%d images=%d tables=%d text_blocks=%d images_skipped=%d rows_adjusted=%d",
		s.Pages, s.Images, s.Tables, s.TextBlocks, s.ImagesSkipped, s.RowsAdjusted)
}

// Stage identifies a step of the conversion for progress reporting.
type Stage string

const (
	StageStarting   Stage = "starting"
	StageAnalyzing  Stage = "analyzing"
	StageExtracting Stage = "extracting"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
)

// Progress is emitted by the pipeline as it advances. Page is 1-based and
// only set during StageExtracting.
type Progress struct {
	Stage   Stage  `json:"stage"`
	Page    int    `json:"page,omitempty"`
	Pages   int    `json:"pages,omitempty"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ProgressFunc receives progress events. It is called synchronously from the
// converting goroutine and must not block for long.
type ProgressFunc func(Progress)
