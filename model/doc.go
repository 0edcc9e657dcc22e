// Package model defines the request-scoped data that flows through a PDF to
// DOCX conversion.
//
// The types here are deliberately small. A [PageRecord] carries what was
// extracted from one page of the source: its text, zero or more
// [TableRecord] values and zero or more [ImageRecord] values. Records live
// only while the pipeline walks the document and are dropped as soon as they
// have been appended to the output.
//
// # Options
//
// [Options] holds the per-request switches:
//
//	opts := model.DefaultOptions()
//	opts.IncludeImages = false
//	opts.Quality = model.QualityHigh
//
// # Statistics
//
// [Stats] counts pages, images, tables and text blocks as the pipeline
// progresses. The counters only ever grow; their final values are reported to
// the caller alongside the generated document.
//
// # Tables
//
// Extracted tables are expected to be rectangular. [TableRecord.Normalize]
// enforces that: the header row fixes the column count, shorter rows are
// padded with empty cells and longer rows are truncated.
package model
