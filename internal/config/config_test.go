package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PagesPerDocument != DefaultPagesPerDocument {
		t.Errorf("PagesPerDocument = %d", cfg.PagesPerDocument)
	}
	if cfg.DocumentsInFlight != DefaultDocumentsInFlight {
		t.Errorf("DocumentsInFlight = %d", cfg.DocumentsInFlight)
	}
	if cfg.RatePermits != 1 || cfg.RateWindow != time.Second {
		t.Errorf("rate = %d/%v", cfg.RatePermits, cfg.RateWindow)
	}
	if cfg.MinTextChars != 50 || cfg.MinTextWords != 10 {
		t.Errorf("thresholds = %d chars, %d words", cfg.MinTextChars, cfg.MinTextWords)
	}
	if cfg.RenderDPI != 300 {
		t.Errorf("RenderDPI = %d", cfg.RenderDPI)
	}
	if !cfg.CleanupRendered {
		t.Error("CleanupRendered should default to true")
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q", cfg.Model)
	}
}

func TestLoadRequiresProjectID(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when PROJECT_ID is unset")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")
	t.Setenv("PAGES_PER_DOCUMENT", "3")
	t.Setenv("DOCUMENTS_IN_FLIGHT", "2")
	t.Setenv("RECOGNITION_RATE_PERMITS", "5")
	t.Setenv("RECOGNITION_RATE_WINDOW_MS", "250")
	t.Setenv("CLEANUP_RENDERED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PagesPerDocument != 3 || cfg.DocumentsInFlight != 2 {
		t.Errorf("concurrency = %d/%d", cfg.PagesPerDocument, cfg.DocumentsInFlight)
	}
	if cfg.RatePermits != 5 || cfg.RateWindow != 250*time.Millisecond {
		t.Errorf("rate = %d/%v", cfg.RatePermits, cfg.RateWindow)
	}
	if cfg.CleanupRendered {
		t.Error("CleanupRendered should be false")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PROJECT_ID", "test-project")

	t.Setenv("PAGES_PER_DOCUMENT", "zero")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-integer PAGES_PER_DOCUMENT")
	}

	t.Setenv("PAGES_PER_DOCUMENT", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero concurrency limit")
	}
}
