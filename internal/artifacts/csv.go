package artifacts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

// TrackingPath returns the per-document tracking table location.
func (s *Store) TrackingPath() string {
	return filepath.Join(s.ResultsDir, trackingFile)
}

// ErrorsPath returns the error log location.
func (s *Store) ErrorsPath() string {
	return filepath.Join(s.ResultsDir, errorsFile)
}

// WriteTracking writes one row per processed document.
func (s *Store) WriteTracking(stats []models.DocumentStats) error {
	f, err := os.Create(s.TrackingPath())
	if err != nil {
		return fmt.Errorf("failed to create tracking file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"pdf_file", "pdf_name", "total_pages", "successful_pages",
		"failed_pages", "conventional_pages", "recognized_pages",
		"skipped_pages", "status", "start_time", "end_time",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write tracking header: %w", err)
	}
	for _, d := range stats {
		row := []string{
			d.File,
			d.Document,
			strconv.Itoa(d.TotalPages),
			strconv.Itoa(d.SuccessfulPages),
			strconv.Itoa(d.FailedPages),
			strconv.Itoa(d.ConventionalPages),
			strconv.Itoa(d.RecognizedPages),
			strconv.Itoa(d.SkippedPages),
			d.Status,
			d.StartTime.Format(time.RFC3339),
			d.EndTime.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write tracking row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush tracking file: %w", err)
	}
	return nil
}

// WriteErrors appends nothing to prior runs: the error log reflects the
// current run only.
func (s *Store) WriteErrors(records []models.ErrorRecord) error {
	f, err := os.Create(s.ErrorsPath())
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "pdf_file", "page", "stage", "error"}); err != nil {
		return fmt.Errorf("failed to write error header: %w", err)
	}
	for _, r := range records {
		page := strconv.Itoa(r.Page)
		if r.Page == models.DocumentLevelPage {
			page = "N/A"
		}
		row := []string{
			r.Timestamp.Format(time.RFC3339),
			r.Document,
			page,
			r.Stage,
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write error row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush error log: %w", err)
	}
	return nil
}
