package models

import "time"

// Document processing statuses.
const (
	StatusProcessing       = "processing"
	StatusCompleted        = "completed"
	StatusCompletedErrors  = "completed_with_errors"
	StatusFailed           = "failed"
	StatusSkippedProcessed = "skipped_already_processed"
)

// Pipeline stages used in error records.
const (
	StageDocumentOpen    = "document-open"
	StageRender          = "render"
	StageRecognitionCall = "recognition-call"
	StagePersistence     = "persistence"
	StagePDFProcessing   = "pdf-processing"
	StageUnexpected      = "unexpected"
)

// DocumentLevelPage is the page index recorded on document-level errors.
const DocumentLevelPage = 0

// ErrorRecord is one appended entry of the run's error log.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Document  string    `json:"pdf_file"`
	Page      int       `json:"page"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
}

// DocumentStats aggregates page outcomes for one document.
type DocumentStats struct {
	Document          string    `json:"pdf_name"`
	File              string    `json:"pdf_file"`
	TotalPages        int       `json:"total_pages"`
	SuccessfulPages   int       `json:"successful_pages"`
	FailedPages       int       `json:"failed_pages"`
	ConventionalPages int       `json:"conventional_pages"`
	RecognizedPages   int       `json:"recognized_pages"`
	SkippedPages      int       `json:"skipped_pages"`
	Status            string    `json:"status"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// Merge folds a page outcome into the counters. It is commutative over
// outcomes, so completion order does not matter.
func (s *DocumentStats) Merge(o Outcome) {
	if o.Success {
		s.SuccessfulPages++
		switch {
		case o.Skipped:
			s.SkippedPages++
		case o.Method == MethodConventional:
			s.ConventionalPages++
		case o.Method == MethodRecognition:
			s.RecognizedPages++
		}
		return
	}
	s.FailedPages++
}

// Outcome is the result of processing a single page.
type Outcome struct {
	Page    int
	Success bool
	Skipped bool
	Method  Method
	Stage   string
	Err     error
}

// RunStats aggregates document statistics for an entire run.
type RunStats struct {
	RunID              string          `json:"run_id"`
	TotalDocuments     int             `json:"total_pdfs"`
	ProcessedDocuments int             `json:"processed_pdfs"`
	SkippedDocuments   int             `json:"skipped_pdfs"`
	TotalPages         int             `json:"total_pages"`
	SuccessfulPages    int             `json:"successful_pages"`
	FailedPages        int             `json:"failed_pages"`
	ConventionalPages  int             `json:"conventional_pages"`
	RecognizedPages    int             `json:"recognized_pages"`
	SkippedPages       int             `json:"skipped_pages"`
	StartTime          time.Time       `json:"start_time"`
	EndTime            time.Time       `json:"end_time"`
	Documents          []DocumentStats `json:"pdf_details"`
}

// Merge folds one document's statistics into the run totals.
func (r *RunStats) Merge(d DocumentStats) {
	r.ProcessedDocuments++
	if d.Status == StatusSkippedProcessed {
		r.SkippedDocuments++
	}
	r.TotalPages += d.TotalPages
	r.SuccessfulPages += d.SuccessfulPages
	r.FailedPages += d.FailedPages
	r.ConventionalPages += d.ConventionalPages
	r.RecognizedPages += d.RecognizedPages
	r.SkippedPages += d.SkippedPages
	r.Documents = append(r.Documents, d)
}
