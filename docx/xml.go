package docx

import "encoding/xml"

// XML namespaces written into the package parts.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Relationship types.
const (
	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// documentXML is the root of word/document.xml.
type documentXML struct {
	XMLName xml.Name `xml:"w:document"`
	NSW     string   `xml:"xmlns:w,attr"`
	NSR     string   `xml:"xmlns:r,attr"`
	NSWP    string   `xml:"xmlns:wp,attr"`
	NSA     string   `xml:"xmlns:a,attr"`
	NSPic   string   `xml:"xmlns:pic,attr"`
	Body    bodyXML  `xml:"w:body"`
}

// bodyXML holds the blocks in reading order followed by the section
// properties. Every element of Blocks carries its own XMLName.
type bodyXML struct {
	Blocks  []any
	Section sectionPrXML `xml:"w:sectPr"`
}

// sectionPrXML describes a US Letter page with one-inch margins.
type sectionPrXML struct {
	Size   pageSizeXML   `xml:"w:pgSz"`
	Margin pageMarginXML `xml:"w:pgMar"`
}

type pageSizeXML struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type pageMarginXML struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

// paragraphXML represents a paragraph element (<w:p>).
type paragraphXML struct {
	XMLName xml.Name           `xml:"w:p"`
	Props   *paragraphPropsXML `xml:"w:pPr"`
	Runs    []runXML           `xml:"w:r"`
}

// paragraphPropsXML represents paragraph properties (<w:pPr>).
type paragraphPropsXML struct {
	Style *valXML `xml:"w:pStyle"`
	Jc    *valXML `xml:"w:jc"`
}

// valXML is any element whose only content is a w:val attribute.
type valXML struct {
	Val string `xml:"w:val,attr"`
}

// runXML represents a text run (<w:r>). Exactly one field is set.
type runXML struct {
	Text    *textXML    `xml:"w:t"`
	Tab     *emptyXML   `xml:"w:tab"`
	Break   *breakXML   `xml:"w:br"`
	Drawing *drawingXML `xml:"w:drawing"`
}

// textXML represents text content (<w:t>).
type textXML struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

// breakXML represents a line or page break (<w:br>).
type breakXML struct {
	Type string `xml:"w:type,attr,omitempty"`
}

type emptyXML struct{}

// tableXML represents a table (<w:tbl>).
type tableXML struct {
	XMLName xml.Name      `xml:"w:tbl"`
	Props   tablePropsXML `xml:"w:tblPr"`
	Grid    tableGridXML  `xml:"w:tblGrid"`
	Rows    []tableRowXML `xml:"w:tr"`
}

type tablePropsXML struct {
	Style valXML   `xml:"w:tblStyle"`
	Width widthXML `xml:"w:tblW"`
}

// widthXML is a measurement in twentieths of a point, or auto.
type widthXML struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type tableGridXML struct {
	Cols []gridColXML `xml:"w:gridCol"`
}

type gridColXML struct {
	W int `xml:"w:w,attr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"w:tc"`
}

type tableCellXML struct {
	Props      cellPropsXML   `xml:"w:tcPr"`
	Paragraphs []paragraphXML `xml:"w:p"`
}

type cellPropsXML struct {
	Width widthXML `xml:"w:tcW"`
}

// drawingXML wraps an inline picture (<w:drawing>).
type drawingXML struct {
	Inline inlineXML `xml:"wp:inline"`
}

type inlineXML struct {
	DistT   int               `xml:"distT,attr"`
	DistB   int               `xml:"distB,attr"`
	DistL   int               `xml:"distL,attr"`
	DistR   int               `xml:"distR,attr"`
	Extent  extentXML         `xml:"wp:extent"`
	DocPr   nvPropsXML        `xml:"wp:docPr"`
	FramePr graphicFramePrXML `xml:"wp:cNvGraphicFramePr"`
	Graphic graphicXML        `xml:"a:graphic"`
}

// extentXML is a size in EMUs.
type extentXML struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type nvPropsXML struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type graphicFramePrXML struct {
	Locks graphicFrameLocksXML `xml:"a:graphicFrameLocks"`
}

type graphicFrameLocksXML struct {
	NoChangeAspect int `xml:"noChangeAspect,attr"`
}

type graphicXML struct {
	Data graphicDataXML `xml:"a:graphicData"`
}

type graphicDataXML struct {
	URI string `xml:"uri,attr"`
	Pic picXML `xml:"pic:pic"`
}

type picXML struct {
	NvPicPr  nvPicPrXML  `xml:"pic:nvPicPr"`
	BlipFill blipFillXML `xml:"pic:blipFill"`
	SpPr     spPrXML     `xml:"pic:spPr"`
}

type nvPicPrXML struct {
	CNvPr    nvPropsXML `xml:"pic:cNvPr"`
	CNvPicPr emptyXML   `xml:"pic:cNvPicPr"`
}

type blipFillXML struct {
	Blip    blipXML    `xml:"a:blip"`
	Stretch stretchXML `xml:"a:stretch"`
}

type blipXML struct {
	Embed string `xml:"r:embed,attr"`
}

type stretchXML struct {
	FillRect emptyXML `xml:"a:fillRect"`
}

type spPrXML struct {
	Xfrm xfrmXML     `xml:"a:xfrm"`
	Geom prstGeomXML `xml:"a:prstGeom"`
}

type xfrmXML struct {
	Off offsetXML `xml:"a:off"`
	Ext extentXML `xml:"a:ext"`
}

type offsetXML struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type prstGeomXML struct {
	Prst  string   `xml:"prst,attr"`
	AvLst emptyXML `xml:"a:avLst"`
}

// relationshipsXML represents a .rels part.
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	NS            string            `xml:"xmlns,attr"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// contentTypesXML represents [Content_Types].xml.
type contentTypesXML struct {
	XMLName   xml.Name          `xml:"Types"`
	NS        string            `xml:"xmlns,attr"`
	Defaults  []defaultTypeXML  `xml:"Default"`
	Overrides []overrideTypeXML `xml:"Override"`
}

type defaultTypeXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type overrideTypeXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}
