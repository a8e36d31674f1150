// Package results assembles per-page artifacts into whole-document results
// and loads them into the results store. It runs after the pipeline, outside
// the page-processing hot path.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Lllllllleong/ocrpipeline/internal/models"
)

// CombinedResult is a whole document reassembled from its page artifacts.
type CombinedResult struct {
	Pages []models.ExtractionResult `json:"pages"`
}

// DocumentMetadata accompanies a combined result into the results store.
type DocumentMetadata struct {
	Document  string `json:"pdf_name"`
	PageCount int    `json:"page_count"`
	Engine    string `json:"ocr_engine"`
}

// LoadDocument reads every page artifact of a document and returns them in
// page order together with store metadata.
func LoadDocument(resultsDir, document string) (*CombinedResult, *DocumentMetadata, error) {
	dir := filepath.Join(resultsDir, document)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list artifacts for %s: %w", document, err)
	}

	var pages []models.ExtractionResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read artifact %s: %w", e.Name(), err)
		}
		var page models.ExtractionResult
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, nil, fmt.Errorf("failed to parse artifact %s: %w", e.Name(), err)
		}
		pages = append(pages, page)
	}
	if len(pages) == 0 {
		return nil, nil, fmt.Errorf("no page artifacts found for %s", document)
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Metadata.Page < pages[j].Metadata.Page
	})

	meta := &DocumentMetadata{
		Document:  document,
		PageCount: len(pages),
		Engine:    pages[0].Metadata.Engine,
	}
	return &CombinedResult{Pages: pages}, meta, nil
}

// ListDocuments enumerates the documents that have page artifacts.
func ListDocuments(resultsDir string) ([]string, error) {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list results dir: %w", err)
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			docs = append(docs, e.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}
