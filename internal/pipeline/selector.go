package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

// Thresholds gate the conventional extraction path.
type Thresholds struct {
	MinChars int
	MinWords int
}

// SelectMethod decides how a page should be processed from its embedded
// text. Pages with enough already-encoded text are extracted conventionally;
// everything else, including pages with no embedded text at all, goes to the
// recognition service. The decision is pure and never fails.
func SelectMethod(embedded string, t Thresholds) models.Method {
	// Character counts are rune counts, so multi-byte text is not
	// over-counted toward the threshold.
	cleaned := strings.TrimSpace(embedded)
	if utf8.RuneCountInString(cleaned) >= t.MinChars && len(strings.Fields(cleaned)) >= t.MinWords {
		return models.MethodConventional
	}
	return models.MethodRecognition
}
