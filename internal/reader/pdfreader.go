package reader

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFOpener opens PDF files. Each opened document gets its own scratch
// directory under WorkDir; rendered page payloads land in RenderDir so the
// corpus scheduler can discard them after the run.
type PDFOpener struct {
	WorkDir   string
	RenderDir string
}

func relaxedConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open validates and optimizes the PDF into a working copy, then prepares
// text access. The optimized copy is what all later page operations read.
func (o *PDFOpener) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp(o.WorkDir, "ocr-doc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}

	optimized := filepath.Join(scratch, "optimized.pdf")
	if err := api.OptimizeFile(path, optimized, relaxedConf()); err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("failed to validate/optimize %s: %w", filepath.Base(path), err)
	}

	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	f, r, err := pdf.Open(optimized)
	if err != nil {
		os.RemoveAll(scratch)
		return nil, fmt.Errorf("failed to open optimized PDF: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &pdfDocument{
		name:      name,
		optimized: optimized,
		scratch:   scratch,
		renderDir: o.RenderDir,
		pageCount: pageCount,
		file:      f,
		text:      r,
	}, nil
}

type pdfDocument struct {
	name      string
	optimized string
	scratch   string
	renderDir string
	pageCount int
	file      *os.File
	text      *pdf.Reader
}

func (d *pdfDocument) PageCount() int { return d.pageCount }

// EmbeddedText pulls the already-encoded text of a page along with per-span
// font sizes. The underlying parser panics on some malformed content
// streams, so this is recover-guarded.
func (d *pdfDocument) EmbeddedText(page int) (pt PageText, err error) {
	if page < 1 || page > d.pageCount {
		return PageText{}, fmt.Errorf("page %d out of range 1..%d", page, d.pageCount)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction panicked on page %d: %v", page, r)
		}
	}()

	p := d.text.Page(page)
	if p.V.IsNull() {
		return PageText{}, nil
	}

	plain, err := p.GetPlainText(nil)
	if err != nil {
		return PageText{}, fmt.Errorf("failed to extract plain text: %w", err)
	}

	var spans []TextSpan
	for _, t := range p.Content().Text {
		if s := strings.TrimSpace(t.S); s != "" {
			spans = append(spans, TextSpan{Text: s, FontSize: t.FontSize})
		}
	}

	return PageText{Plain: plain, Spans: spans}, nil
}

// RenderPage produces the recognition payload for one page: the page trimmed
// to a standalone single-page PDF, which the recognition model ingests
// directly. The dpi value is recorded on the payload for result metadata.
func (d *pdfDocument) RenderPage(ctx context.Context, page, dpi int) (RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return RenderedPage{}, err
	}
	if page < 1 || page > d.pageCount {
		return RenderedPage{}, fmt.Errorf("page %d out of range 1..%d", page, d.pageCount)
	}

	dir := filepath.Join(d.renderDir, d.name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return RenderedPage{}, fmt.Errorf("failed to create render dir: %w", err)
	}

	out := filepath.Join(dir, fmt.Sprintf("page_%d.pdf", page))
	if err := api.TrimFile(d.optimized, out, []string{strconv.Itoa(page)}, relaxedConf()); err != nil {
		return RenderedPage{}, fmt.Errorf("failed to extract page %d: %w", page, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return RenderedPage{}, fmt.Errorf("failed to read rendered page: %w", err)
	}

	return RenderedPage{Data: data, MIMEType: "application/pdf", DPI: dpi}, nil
}

// EmbeddedImages extracts a page's image resources into scratch space and
// reports their pixel dimensions. Images that cannot be decoded are omitted
// rather than failing the page.
func (d *pdfDocument) EmbeddedImages(page int) ([]EmbeddedImage, error) {
	if page < 1 || page > d.pageCount {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, d.pageCount)
	}

	dir := filepath.Join(d.scratch, fmt.Sprintf("images_%d", page))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	if err := api.ExtractImagesFile(d.optimized, dir, []string{strconv.Itoa(page)}, relaxedConf()); err != nil {
		return nil, fmt.Errorf("failed to extract images for page %d: %w", page, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}

	var images []EmbeddedImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		img := EmbeddedImage{Name: e.Name()}
		if f, err := os.Open(filepath.Join(dir, e.Name())); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				img.Width = cfg.Width
				img.Height = cfg.Height
			}
			f.Close()
		}
		images = append(images, img)
	}
	return images, nil
}

func (d *pdfDocument) Close() error {
	var firstErr error
	if d.file != nil {
		firstErr = d.file.Close()
	}
	if err := os.RemoveAll(d.scratch); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
