// Package docx writes WordprocessingML (.docx) packages.
//
// A [Document] is an append-only sequence of blocks: paragraphs, tables,
// inline pictures and page breaks. Blocks are added in reading order and the
// document is serialized exactly once with [Document.Bytes] or
// [Document.WriteTo]; after that the document is sealed and every further
// call returns [ErrSealed].
//
//	doc := docx.New(docx.WithTitle("report"))
//	_ = doc.AddParagraph("Hello World")
//	_ = doc.AddTable([][]string{{"a", "b"}, {"c", "d"}})
//	data, err := doc.Bytes()
//
// All text is passed through [Sanitize] before it is written, so callers may
// hand over text straight from a PDF extractor.
package docx
