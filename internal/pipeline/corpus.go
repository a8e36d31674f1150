package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

// errorLog accumulates error records from concurrent document completions.
// Appends are serialized; records are never mutated or deduplicated.
type errorLog struct {
	mu      sync.Mutex
	records []models.ErrorRecord
}

func (e *errorLog) Record(document string, page int, stage string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	e.mu.Lock()
	e.records = append(e.records, models.ErrorRecord{
		Timestamp: time.Now().UTC(),
		Document:  document,
		Page:      page,
		Stage:     stage,
		Error:     msg,
	})
	e.mu.Unlock()
}

func (e *errorLog) Records() []models.ErrorRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.ErrorRecord(nil), e.records...)
}

// CorpusScheduler runs the whole corpus under a bounded document pool,
// independent of the per-document page pool.
type CorpusScheduler struct {
	Documents *DocumentScheduler
	Store     *artifacts.Store

	DocumentsInFlight int
	CleanupRendered   bool
}

// Run processes every document and returns the run summary. Individual
// document failures never abort the run; the summary, tracking table and
// error log are always written.
func (c *CorpusScheduler) Run(ctx context.Context, paths []string) *models.RunStats {
	run := &models.RunStats{
		RunID:          uuid.NewString(),
		TotalDocuments: len(paths),
		StartTime:      time.Now().UTC(),
	}
	slog.Info("Starting OCR pipeline run.",
		"runId", run.RunID,
		"documents", len(paths),
		"documentsInFlight", c.DocumentsInFlight,
	)

	errs := &errorLog{}
	var mu sync.Mutex
	var eg errgroup.Group
	eg.SetLimit(c.DocumentsInFlight)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			file := filepath.Base(path)
			defer func() {
				// A defect in one document's processing must not end the run.
				if r := recover(); r != nil {
					slog.Error("Document processing panicked.", "document", file, "panic", r)
					errs.Record(file, models.DocumentLevelPage, models.StagePDFProcessing, fmt.Errorf("document processing panicked: %v", r))
				}
			}()

			stats := c.Documents.Process(ctx, path, errs)
			mu.Lock()
			run.Merge(stats)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	run.EndTime = time.Now().UTC()
	c.persist(run, errs.Records())

	slog.Info("OCR pipeline run complete.",
		"runId", run.RunID,
		"totalPages", run.TotalPages,
		"successful", run.SuccessfulPages,
		"failed", run.FailedPages,
		"conventional", run.ConventionalPages,
		"recognized", run.RecognizedPages,
		"skipped", run.SkippedPages,
	)
	return run
}

// persist writes the run's side artifacts. Each write is attempted even if
// an earlier one fails; failures here are logged, not fatal.
func (c *CorpusScheduler) persist(run *models.RunStats, records []models.ErrorRecord) {
	if len(records) > 0 {
		if err := c.Store.WriteErrors(records); err != nil {
			slog.Error("Failed to write error log.", "error", err)
		} else {
			slog.Info("Wrote error log.", "path", c.Store.ErrorsPath(), "errors", len(records))
		}
	}

	if err := c.Store.WriteTracking(run.Documents); err != nil {
		slog.Error("Failed to write tracking table.", "error", err)
	}

	if c.CleanupRendered {
		if err := c.Store.CleanupRendered(); err != nil {
			slog.Warn("Failed to clean up rendered pages.", "error", err)
		}
	}

	if err := c.Store.WriteSummary(run); err != nil {
		slog.Error("Failed to write run summary.", "error", err)
	}
}
