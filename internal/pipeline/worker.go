package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/models"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
	"github.com/Lllllllleong/ocrpipeline/internal/recognize"
)

// conventionalEngine tags results produced without the recognition service.
const conventionalEngine = "pdfcpu"

// Worker processes one page at a time: selection, extraction or
// recognition, normalization, persistence. Failures never escape Process;
// they are converted into a failed Outcome so sibling pages are unaffected.
type Worker struct {
	Store      *artifacts.Store
	Recognizer recognize.Client
	Limiter    *Limiter

	Thresholds  Thresholds
	RenderDPI   int
	MaxTokens   int
	Temperature float32
}

// Process runs the full page flow for (document, page).
func (w *Worker) Process(ctx context.Context, doc reader.Document, docName string, page int) (out models.Outcome) {
	out = models.Outcome{Page: page}
	logCtx := slog.With("document", docName, "page", page)

	defer func() {
		if r := recover(); r != nil {
			logCtx.Error("Page processing panicked.", "panic", r)
			out = models.Outcome{
				Page:  page,
				Stage: models.StageUnexpected,
				Err:   fmt.Errorf("page processing panicked: %v", r),
			}
		}
	}()

	// Completion is evidenced solely by artifact existence.
	if w.Store.PageExists(docName, page) {
		logCtx.Info("Skipping page, artifact already exists.")
		out.Success = true
		out.Skipped = true
		return out
	}

	text, err := doc.EmbeddedText(page)
	if err != nil {
		// Unreadable embedded text means the page has nothing usable for
		// conventional extraction; let recognition handle it.
		logCtx.Warn("Embedded text unavailable, falling back to recognition.", "error", err)
		text = reader.PageText{}
	}

	method := SelectMethod(text.Plain, w.Thresholds)

	var content models.PageContent
	switch method {
	case models.MethodConventional:
		content = w.processConventional(logCtx, doc, text, page)
	case models.MethodRecognition:
		content, err = w.processRecognition(ctx, logCtx, doc, page)
		if err != nil {
			out.Stage = stageForRecognitionError(err)
			out.Err = err
			return out
		}
	}

	result := w.buildResult(docName, page, method, content)
	if err := w.Store.WritePage(docName, page, result); err != nil {
		logCtx.Error("Failed to persist page result.", "error", err)
		out.Stage = models.StagePersistence
		out.Err = err
		return out
	}

	logCtx.Info("Page processed.", "method", method, "chars", len(content.Text))
	out.Success = true
	out.Method = method
	return out
}

func (w *Worker) processConventional(logCtx *slog.Logger, doc reader.Document, text reader.PageText, page int) models.PageContent {
	images, err := doc.EmbeddedImages(page)
	if err != nil {
		// Best-effort: missing image info never fails the page.
		logCtx.Warn("Failed to enumerate embedded images.", "error", err)
		images = nil
	}
	return conventionalContent(text, images)
}

func (w *Worker) processRecognition(ctx context.Context, logCtx *slog.Logger, doc reader.Document, page int) (models.PageContent, error) {
	rendered, err := doc.RenderPage(ctx, page, w.RenderDPI)
	if err != nil {
		return models.PageContent{}, fmt.Errorf("render failed: %w", renderError{err})
	}

	if err := w.Limiter.Acquire(ctx); err != nil {
		return models.PageContent{}, fmt.Errorf("%w: rate limiter interrupted: %v", recognize.ErrUnavailable, err)
	}

	raw, err := w.Recognizer.Recognize(ctx, recognize.Request{
		Data:        rendered.Data,
		MIMEType:    rendered.MIMEType,
		MaxTokens:   w.MaxTokens,
		Temperature: w.Temperature,
	})
	if err != nil {
		logCtx.Error("Recognition call failed.", "error", err)
		return models.PageContent{}, err
	}

	// Malformed output degrades to raw text inside Normalize; it is never a
	// page failure.
	content, parsed := recognize.Normalize(raw)
	if !parsed {
		logCtx.Warn("Recognition response was not valid JSON, kept raw text.")
	}
	return content, nil
}

func (w *Worker) buildResult(docName string, page int, method models.Method, content models.PageContent) *models.ExtractionResult {
	meta := models.Metadata{
		Document:         docName,
		Page:             page,
		ProcessedAt:      time.Now().UTC(),
		ExtractionMethod: method,
		Engine:           conventionalEngine,
	}

	var raw *string
	if method == models.MethodRecognition {
		meta.Engine = w.Recognizer.Engine()
		meta.DPI = w.RenderDPI
		rawCopy := content.Raw
		raw = &rawCopy
	}

	return &models.ExtractionResult{
		Text:        content.Text,
		Headings:    content.Headings,
		Tables:      content.Tables,
		Images:      content.Images,
		Structure:   content.Structure,
		Metadata:    meta,
		RawResponse: raw,
	}
}

// renderError distinguishes rendering failures from recognition transport
// failures in error records.
type renderError struct{ err error }

func (e renderError) Error() string { return e.err.Error() }
func (e renderError) Unwrap() error { return e.err }

func stageForRecognitionError(err error) string {
	var re renderError
	if errors.As(err, &re) {
		return models.StageRender
	}
	return models.StageRecognitionCall
}
