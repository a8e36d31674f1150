package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the extraction pipeline.
const (
	DefaultPagesPerDocument  = 10
	DefaultDocumentsInFlight = 4
	DefaultRatePermits       = 1
	DefaultRateWindow        = time.Second
	DefaultMinTextChars      = 50
	DefaultMinTextWords      = 10
	DefaultRenderDPI         = 300
	DefaultMaxOutputTokens   = 16384
	DefaultModel             = "gemini-2.5-flash"
)

// Config holds every knob the pipeline recognizes. All values are read from
// the environment; unset values fall back to the defaults above.
type Config struct {
	ProjectID      string
	VertexAIRegion string
	Model          string

	CorpusDir  string
	ResultsDir string
	WorkDir    string

	PagesPerDocument  int
	DocumentsInFlight int
	RatePermits       int
	RateWindow        time.Duration

	MinTextChars int
	MinTextWords int

	RenderDPI       int
	MaxOutputTokens int
	Temperature     float32

	CleanupRendered bool
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

// Load reads and validates the pipeline configuration from the environment.
func Load() (*Config, error) {
	projectID := GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	cfg := &Config{
		ProjectID:      projectID,
		VertexAIRegion: GetEnv("VERTEX_AI_REGION", "us-central1"),
		Model:          GetEnv("OCR_MODEL", DefaultModel),
		CorpusDir:      GetEnv("CORPUS_DIR", "downloaded_pdfs"),
		ResultsDir:     GetEnv("RESULTS_DIR", "ocr_results"),
		WorkDir:        GetEnv("WORK_DIR", ""),
		RateWindow:     DefaultRateWindow,
		Temperature:    0,
	}

	var err error
	if cfg.PagesPerDocument, err = getEnvInt("PAGES_PER_DOCUMENT", DefaultPagesPerDocument); err != nil {
		return nil, err
	}
	if cfg.DocumentsInFlight, err = getEnvInt("DOCUMENTS_IN_FLIGHT", DefaultDocumentsInFlight); err != nil {
		return nil, err
	}
	if cfg.RatePermits, err = getEnvInt("RECOGNITION_RATE_PERMITS", DefaultRatePermits); err != nil {
		return nil, err
	}
	if windowMS, err := getEnvInt("RECOGNITION_RATE_WINDOW_MS", int(DefaultRateWindow/time.Millisecond)); err != nil {
		return nil, err
	} else {
		cfg.RateWindow = time.Duration(windowMS) * time.Millisecond
	}
	if cfg.MinTextChars, err = getEnvInt("MIN_TEXT_CHARS", DefaultMinTextChars); err != nil {
		return nil, err
	}
	if cfg.MinTextWords, err = getEnvInt("MIN_TEXT_WORDS", DefaultMinTextWords); err != nil {
		return nil, err
	}
	if cfg.RenderDPI, err = getEnvInt("RENDER_DPI", DefaultRenderDPI); err != nil {
		return nil, err
	}
	if cfg.MaxOutputTokens, err = getEnvInt("MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens); err != nil {
		return nil, err
	}
	if cfg.CleanupRendered, err = getEnvBool("CLEANUP_RENDERED", true); err != nil {
		return nil, err
	}

	if cfg.PagesPerDocument < 1 || cfg.DocumentsInFlight < 1 {
		return nil, fmt.Errorf("concurrency limits must be at least 1")
	}
	if cfg.RatePermits < 1 || cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("rate limit must allow at least 1 permit per positive window")
	}

	return cfg, nil
}
