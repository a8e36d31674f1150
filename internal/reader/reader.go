// Package reader provides access to the pages of a source document: page
// count, embedded machine-readable text, page rendering for recognition, and
// best-effort enumeration of embedded images.
package reader

import "context"

// TextSpan is a run of embedded text sharing one font size.
type TextSpan struct {
	Text     string
	FontSize float64
}

// PageText is the embedded text of a single page.
type PageText struct {
	Plain string
	Spans []TextSpan
}

// RenderedPage is a page rendered into a payload the recognition service
// accepts. The transient on-disk copy lives under the render directory and
// is discarded wholesale after the run.
type RenderedPage struct {
	Data     []byte
	MIMEType string
	DPI      int
}

// EmbeddedImage describes one image resource found on a page.
type EmbeddedImage struct {
	Name   string
	Width  int
	Height int
}

// Document is an open source document. Pages are 1-indexed.
type Document interface {
	PageCount() int
	EmbeddedText(page int) (PageText, error)
	RenderPage(ctx context.Context, page, dpi int) (RenderedPage, error)
	EmbeddedImages(page int) ([]EmbeddedImage, error)
	Close() error
}

// Opener opens documents by path.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}
