package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/models"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
)

// DocumentScheduler processes all unfinished pages of one document under a
// bounded page pool.
type DocumentScheduler struct {
	Opener reader.Opener
	Store  *artifacts.Store
	Worker *Worker

	PagesPerDocument int
}

// Process runs the document end to end and returns its statistics. Page
// failures are counted and recorded in errs; they never abort the document.
func (s *DocumentScheduler) Process(ctx context.Context, path string, errs *errorLog) models.DocumentStats {
	file := filepath.Base(path)
	name := strings.TrimSuffix(file, filepath.Ext(file))
	logCtx := slog.With("document", name)

	stats := models.DocumentStats{
		Document:  name,
		File:      file,
		Status:    models.StatusProcessing,
		StartTime: time.Now().UTC(),
	}

	doc, err := s.Opener.Open(ctx, path)
	if err != nil {
		logCtx.Error("Failed to open document.", "error", err)
		errs.Record(file, models.DocumentLevelPage, models.StageDocumentOpen, err)
		stats.Status = models.StatusFailed
		stats.EndTime = time.Now().UTC()
		return stats
	}
	defer doc.Close()

	stats.TotalPages = doc.PageCount()

	existing, err := s.Store.CountPages(name)
	if err != nil {
		logCtx.Warn("Failed to count existing artifacts, processing all pages.", "error", err)
		existing = 0
	}
	if stats.TotalPages > 0 && existing >= stats.TotalPages {
		logCtx.Info("Skipping document, already fully processed.",
			"existingPages", existing, "totalPages", stats.TotalPages)
		stats.SuccessfulPages = existing
		stats.SkippedPages = existing
		stats.Status = models.StatusSkippedProcessed
		stats.EndTime = time.Now().UTC()
		return stats
	}
	if existing > 0 {
		logCtx.Info("Resuming document.", "existingPages", existing, "totalPages", stats.TotalPages)
	}

	logCtx.Info("Processing pages.", "totalPages", stats.TotalPages, "workers", s.PagesPerDocument)

	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(s.PagesPerDocument)

	for page := 1; page <= stats.TotalPages; page++ {
		if ctx.Err() != nil {
			// Cancellation stops issuing new work; in-flight pages finish.
			break
		}
		eg.Go(func() error {
			out := s.Worker.Process(ctx, doc, name, page)
			mu.Lock()
			stats.Merge(out)
			mu.Unlock()
			if !out.Success {
				errs.Record(file, out.Page, out.Stage, out.Err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	stats.EndTime = time.Now().UTC()
	if stats.FailedPages == 0 {
		stats.Status = models.StatusCompleted
	} else {
		stats.Status = models.StatusCompletedErrors
	}

	logCtx.Info("Document complete.",
		"status", stats.Status,
		"successful", stats.SuccessfulPages,
		"failed", stats.FailedPages,
		"conventional", stats.ConventionalPages,
		"recognized", stats.RecognizedPages,
		"skipped", stats.SkippedPages,
	)
	return stats
}
