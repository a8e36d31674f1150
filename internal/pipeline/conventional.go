package pipeline

import (
	"fmt"
	"sort"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
)

// headingSizeRatio is how much larger than the smallest font a span must be
// to count as a heading candidate.
const headingSizeRatio = 1.2

// conventionalContent builds page content from embedded text and layout
// hints, without touching the recognition service.
func conventionalContent(text reader.PageText, images []reader.EmbeddedImage) models.PageContent {
	headings := detectHeadings(text.Spans)

	imageRefs := []models.ImageRef{}
	for i, img := range images {
		ref := models.ImageRef{
			ID:          fmt.Sprintf("IMAGE_%d", i+1),
			Description: "Image embedded in PDF (not analyzed)",
			Type:        "embedded",
			Position:    "unknown",
		}
		if img.Width > 0 && img.Height > 0 {
			ref.BBox = []float64{0, 0, float64(img.Width), float64(img.Height)}
		}
		imageRefs = append(imageRefs, ref)
	}

	return models.PageContent{
		Text:     text.Plain,
		Headings: headings,
		Tables:   []models.Table{},
		Images:   imageRefs,
		Structure: models.Structure{
			HasHeadings:  len(headings) > 0,
			HasImages:    len(imageRefs) > 0,
			DocumentType: "digital_pdf",
		},
	}
}

// detectHeadings picks heading candidates from the one or two largest
// distinct font sizes on the page, provided they exceed the smallest
// observed size by at least 20%. At most MaxHeadings are kept.
func detectHeadings(spans []reader.TextSpan) []string {
	headings := []string{}
	if len(spans) == 0 {
		return headings
	}

	bySize := make(map[float64][]string)
	for _, s := range spans {
		bySize[s.FontSize] = append(bySize[s.FontSize], s.Text)
	}

	sizes := make([]float64, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	smallest := sizes[len(sizes)-1]

	for i, size := range sizes {
		if i >= 2 {
			break
		}
		if size > smallest*headingSizeRatio {
			headings = append(headings, bySize[size]...)
		}
	}

	if len(headings) > models.MaxHeadings {
		headings = headings[:models.MaxHeadings]
	}
	return headings
}
