// Package artifacts persists the pipeline's outputs: one JSON artifact per
// completed page, a run summary, and CSV tracking/error logs. Page artifact
// existence doubles as the completion ledger for resumability.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

const (
	summaryFile  = "_processing_summary.json"
	trackingFile = "ocr_processing_status.csv"
	errorsFile   = "ocr_errors.csv"
)

// Store lays out artifacts under ResultsDir and transient rendered pages
// under RenderDir.
type Store struct {
	ResultsDir string
	RenderDir  string
}

// NewStore creates the artifact directories if needed.
func NewStore(resultsDir, renderDir string) (*Store, error) {
	for _, dir := range []string{resultsDir, renderDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact dir %s: %w", dir, err)
		}
	}
	return &Store{ResultsDir: resultsDir, RenderDir: renderDir}, nil
}

// PagePath returns the artifact path for (document, page).
func (s *Store) PagePath(document string, page int) string {
	return filepath.Join(s.ResultsDir, document, strconv.Itoa(page)+".json")
}

// PageExists reports whether a page's result artifact already exists. It is
// side-effect free so the worker's idempotency check stays cheap.
func (s *Store) PageExists(document string, page int) bool {
	_, err := os.Stat(s.PagePath(document, page))
	return err == nil
}

// CountPages counts existing page artifacts for a document.
func (s *Store) CountPages(document string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.ResultsDir, document))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts for %s: %w", document, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			count++
		}
	}
	return count, nil
}

// WritePage persists one page result. The artifact is written to a temp file
// and renamed into place, so a partially written file is never visible to
// the resumability check.
func (s *Store) WritePage(document string, page int, result *models.ExtractionResult) error {
	dir := filepath.Join(s.ResultsDir, document)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create result dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".page-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.PagePath(document, page)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}

// WriteSummary persists the run summary artifact.
func (s *Store) WriteSummary(stats *models.RunStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	path := filepath.Join(s.ResultsDir, summaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// CleanupRendered discards all transient rendered page payloads.
func (s *Store) CleanupRendered() error {
	if err := os.RemoveAll(s.RenderDir); err != nil {
		return fmt.Errorf("failed to remove rendered pages: %w", err)
	}
	return nil
}
