package models

import "time"

// Method identifies how a page's text was obtained.
type Method string

const (
	MethodConventional Method = "conventional"
	MethodRecognition  Method = "recognition"
)

// MaxHeadings caps the number of headings kept per page.
const MaxHeadings = 10

// Table is a table detected on a page.
type Table struct {
	ID      string     `json:"id"`
	Caption string     `json:"caption"`
	Data    [][]string `json:"data"`
}

// ImageRef describes an image or figure detected on a page. BBox is
// [x0, y0, x1, y1] in page coordinates when known.
type ImageRef struct {
	ID          string    `json:"id"`
	BBox        []float64 `json:"bbox,omitempty"`
	Caption     string    `json:"caption"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Position    string    `json:"position"`
}

// Structure summarizes the layout of a page. Each boolean must agree with
// the corresponding list on the result being non-empty.
type Structure struct {
	HasHeadings  bool   `json:"has_headings"`
	HasTables    bool   `json:"has_tables"`
	HasLists     bool   `json:"has_lists"`
	HasImages    bool   `json:"has_images"`
	DocumentType string `json:"document_type"`
}

// Metadata records where a result came from and how it was produced.
type Metadata struct {
	Document         string    `json:"pdf_name"`
	Page             int       `json:"page_number"`
	ProcessedAt      time.Time `json:"processed_at"`
	ExtractionMethod Method    `json:"extraction_method"`
	Engine           string    `json:"ocr_engine"`
	DPI              int       `json:"dpi,omitempty"`
}

// ExtractionResult is the per-page artifact persisted by the pipeline.
// Text is always present, possibly empty. RawResponse is nil for
// conventionally extracted pages and carries the unparsed engine output
// for recognized pages.
type ExtractionResult struct {
	Text        string     `json:"text"`
	Headings    []string   `json:"headings"`
	Tables      []Table    `json:"tables"`
	Images      []ImageRef `json:"images"`
	Structure   Structure  `json:"structure"`
	Metadata    Metadata   `json:"metadata"`
	RawResponse *string    `json:"raw_response"`
}

// PageContent is the method-independent payload of a result, before run
// metadata is attached.
type PageContent struct {
	Text      string
	Headings  []string
	Tables    []Table
	Images    []ImageRef
	Structure Structure
	Raw       string
}
