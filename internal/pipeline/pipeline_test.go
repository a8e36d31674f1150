package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
	"github.com/Lllllllleong/ocrpipeline/internal/recognize"
)

// fakeDocument serves canned page content. Pages without embedded text go
// through recognition.
type fakeDocument struct {
	pages  int
	text   map[int]reader.PageText
	images map[int][]reader.EmbeddedImage

	renderErr map[int]error

	mu        sync.Mutex
	textReads int
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) EmbeddedText(page int) (reader.PageText, error) {
	d.mu.Lock()
	d.textReads++
	d.mu.Unlock()
	return d.text[page], nil
}

func (d *fakeDocument) RenderPage(ctx context.Context, page, dpi int) (reader.RenderedPage, error) {
	if err := d.renderErr[page]; err != nil {
		return reader.RenderedPage{}, err
	}
	return reader.RenderedPage{
		Data:     []byte(fmt.Sprintf("page-%d", page)),
		MIMEType: "application/pdf",
		DPI:      dpi,
	}, nil
}

func (d *fakeDocument) EmbeddedImages(page int) ([]reader.EmbeddedImage, error) {
	return d.images[page], nil
}

func (d *fakeDocument) Close() error { return nil }

// fakeOpener maps document names to fake documents.
type fakeOpener struct {
	docs    map[string]*fakeDocument
	openErr map[string]error
}

func (o *fakeOpener) Open(ctx context.Context, path string) (reader.Document, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := o.openErr[name]; err != nil {
		return nil, err
	}
	doc, ok := o.docs[name]
	if !ok {
		return nil, fmt.Errorf("no such document %q", name)
	}
	return doc, nil
}

// fakeRecognizer returns a canned response per rendered payload and counts
// calls.
type fakeRecognizer struct {
	mu        sync.Mutex
	calls     int
	responses map[string]string
	failures  map[string]error
	fallback  string
}

func (r *fakeRecognizer) Engine() string { return "fake-engine" }

func (r *fakeRecognizer) Recognize(ctx context.Context, req recognize.Request) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	key := string(req.Data)
	if err, ok := r.failures[key]; ok {
		return "", err
	}
	if resp, ok := r.responses[key]; ok {
		return resp, nil
	}
	if r.fallback != "" {
		return r.fallback, nil
	}
	return `{"text": "recognized"}`, nil
}

func (r *fakeRecognizer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func richText(words int) reader.PageText {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%02d", i)
	}
	return reader.PageText{Plain: strings.Join(parts, " ")}
}

func newTestStore(t *testing.T) *artifacts.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := artifacts.NewStore(filepath.Join(dir, "results"), filepath.Join(dir, "rendered"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func newTestWorker(store *artifacts.Store, rec *fakeRecognizer) *Worker {
	return &Worker{
		Store:      store,
		Recognizer: rec,
		Limiter:    NewLimiter(1000, time.Second),
		Thresholds: Thresholds{MinChars: 50, MinWords: 10},
		RenderDPI:  300,
		MaxTokens:  16384,
	}
}
