package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/models"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
)

func newCorpusScheduler(store *artifacts.Store, opener reader.Opener, rec *fakeRecognizer) *CorpusScheduler {
	return &CorpusScheduler{
		Documents:         newDocScheduler(store, opener, rec),
		Store:             store,
		DocumentsInFlight: 4,
		CleanupRendered:   true,
	}
}

func TestCorpusSchedulerRun(t *testing.T) {
	store := newTestStore(t)
	rec := &fakeRecognizer{}
	opener := &fakeOpener{
		docs: map[string]*fakeDocument{
			"alpha": {pages: 2, text: map[int]reader.PageText{1: richText(20), 2: richText(20)}},
			"beta":  {pages: 3},
		},
		openErr: map[string]error{"gamma": errors.New("truncated file")},
	}

	run := newCorpusScheduler(store, opener, rec).Run(context.Background(),
		[]string{"alpha.pdf", "beta.pdf", "gamma.pdf"})

	if run.TotalDocuments != 3 || run.ProcessedDocuments != 3 {
		t.Fatalf("run = %+v", run)
	}
	if run.TotalPages != 5 || run.SuccessfulPages != 5 || run.FailedPages != 0 {
		t.Fatalf("page counters = %+v", run)
	}
	if run.ConventionalPages != 2 || run.RecognizedPages != 3 {
		t.Fatalf("method counters = %+v", run)
	}
	if run.RunID == "" || run.EndTime.Before(run.StartTime) {
		t.Fatalf("run bookkeeping = %+v", run)
	}

	// The summary, tracking table and error log are always emitted.
	if _, err := os.Stat(filepath.Join(store.ResultsDir, "_processing_summary.json")); err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if _, err := os.Stat(store.TrackingPath()); err != nil {
		t.Fatalf("tracking table missing: %v", err)
	}
	if _, err := os.Stat(store.ErrorsPath()); err != nil {
		t.Fatalf("error log missing: %v", err)
	}
	if _, err := os.Stat(store.RenderDir); !os.IsNotExist(err) {
		t.Fatalf("rendered pages should be discarded, stat err = %v", err)
	}
}

func TestCorpusSchedulerErrorLogContents(t *testing.T) {
	store := newTestStore(t)
	opener := &fakeOpener{
		docs:    map[string]*fakeDocument{},
		openErr: map[string]error{"bad": errors.New("not a PDF")},
	}

	newCorpusScheduler(store, opener, &fakeRecognizer{}).Run(context.Background(), []string{"bad.pdf"})

	f, err := os.Open(store.ErrorsPath())
	if err != nil {
		t.Fatalf("open error log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse error log: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("error log rows = %v", rows)
	}
	if rows[0][0] != "timestamp" || rows[0][3] != "stage" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "bad.pdf" || rows[1][2] != "N/A" || rows[1][3] != models.StageDocumentOpen {
		t.Fatalf("record = %v", rows[1])
	}
}

func TestCorpusSchedulerOrderIndependence(t *testing.T) {
	docs := map[string]*fakeDocument{}
	var paths []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("doc%d", i)
		fd := &fakeDocument{pages: i + 1}
		if i%2 == 0 {
			fd.text = map[int]reader.PageText{1: richText(20)}
		}
		docs[name] = fd
		paths = append(paths, name+".pdf")
	}

	counters := func(run *models.RunStats) [6]int {
		return [6]int{
			run.TotalPages, run.SuccessfulPages, run.FailedPages,
			run.ConventionalPages, run.RecognizedPages, run.SkippedPages,
		}
	}

	baseline := newCorpusScheduler(newTestStore(t), &fakeOpener{docs: docs}, &fakeRecognizer{}).
		Run(context.Background(), paths)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 3; trial++ {
		shuffled := append([]string(nil), paths...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		run := newCorpusScheduler(newTestStore(t), &fakeOpener{docs: docs}, &fakeRecognizer{}).
			Run(context.Background(), shuffled)

		if counters(run) != counters(baseline) {
			t.Fatalf("trial %d: counters %v != baseline %v", trial, counters(run), counters(baseline))
		}
	}
}

func TestCorpusSchedulerTrackingRows(t *testing.T) {
	store := newTestStore(t)
	opener := &fakeOpener{docs: map[string]*fakeDocument{
		"one": {pages: 1, text: map[int]reader.PageText{1: richText(20)}},
		"two": {pages: 2},
	}}

	newCorpusScheduler(store, opener, &fakeRecognizer{}).Run(context.Background(),
		[]string{"one.pdf", "two.pdf"})

	f, err := os.Open(store.TrackingPath())
	if err != nil {
		t.Fatalf("open tracking: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse tracking: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("tracking rows = %d, want header + 2", len(rows))
	}
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		seen[row[0]] = true
		if row[8] != models.StatusCompleted {
			t.Fatalf("status for %s = %q", row[0], row[8])
		}
	}
	if !seen["one.pdf"] || !seen["two.pdf"] {
		t.Fatalf("tracking rows missing documents: %v", seen)
	}
}
