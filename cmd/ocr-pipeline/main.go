package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/Lllllllleong/ocrpipeline/internal/artifacts"
	"github.com/Lllllllleong/ocrpipeline/internal/config"
	"github.com/Lllllllleong/ocrpipeline/internal/gcp"
	"github.com/Lllllllleong/ocrpipeline/internal/pipeline"
	"github.com/Lllllllleong/ocrpipeline/internal/reader"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration.", "error", err)
		return 1
	}

	// Interrupt stops issuing new work; in-flight pages finish and their
	// artifacts become the resume checkpoint for the next run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := filepath.Glob(filepath.Join(cfg.CorpusDir, "*.pdf"))
	if err != nil {
		slog.Error("Failed to scan corpus directory.", "error", err, "dir", cfg.CorpusDir)
		return 1
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		slog.Warn("No PDF files found.", "dir", cfg.CorpusDir)
		return 0
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "ocr-pipeline-*")
		if err != nil {
			slog.Error("Failed to create work directory.", "error", err)
			return 1
		}
		defer os.RemoveAll(workDir)
	}
	renderDir := filepath.Join(workDir, "rendered")

	store, err := artifacts.NewStore(cfg.ResultsDir, renderDir)
	if err != nil {
		slog.Error("Failed to initialize artifact store.", "error", err)
		return 1
	}

	vertexClient, err := gcp.NewVertexClient(ctx, gcp.VertexConfig{
		ProjectID:       cfg.ProjectID,
		Region:          cfg.VertexAIRegion,
		Model:           cfg.Model,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
	})
	if err != nil {
		slog.Error("Failed to create Vertex AI client.", "error", err)
		return 1
	}
	defer vertexClient.Close()

	worker := &pipeline.Worker{
		Store:      store,
		Recognizer: vertexClient,
		Limiter:    pipeline.NewLimiter(cfg.RatePermits, cfg.RateWindow),
		Thresholds: pipeline.Thresholds{
			MinChars: cfg.MinTextChars,
			MinWords: cfg.MinTextWords,
		},
		RenderDPI:   cfg.RenderDPI,
		MaxTokens:   cfg.MaxOutputTokens,
		Temperature: cfg.Temperature,
	}

	scheduler := &pipeline.CorpusScheduler{
		Documents: &pipeline.DocumentScheduler{
			Opener:           &reader.PDFOpener{WorkDir: workDir, RenderDir: renderDir},
			Store:            store,
			Worker:           worker,
			PagesPerDocument: cfg.PagesPerDocument,
		},
		Store:             store,
		DocumentsInFlight: cfg.DocumentsInFlight,
		CleanupRendered:   cfg.CleanupRendered,
	}

	stats := scheduler.Run(ctx, paths)

	if ctx.Err() != nil {
		slog.Warn("Run interrupted.")
		return 130
	}
	if stats.FailedPages > 0 {
		slog.Warn("Run completed with errors.", "failedPages", stats.FailedPages)
		return 1
	}
	slog.Info("Run completed successfully.")
	return 0
}
