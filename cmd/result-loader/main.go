package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/Lllllllleong/ocrpipeline/internal/config"
	"github.com/Lllllllleong/ocrpipeline/internal/results"
)

// result-loader combines each document's page artifacts and inserts them
// into the ocr_results table. It runs after a pipeline run completes.
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	databaseURL := config.GetEnv("DATABASE_URL", "")
	if databaseURL == "" {
		slog.Error("DATABASE_URL environment variable must be set.")
		os.Exit(1)
	}
	resultsDir := config.GetEnv("RESULTS_DIR", "ocr_results")
	tagCSV := config.GetEnv("TAGS_CSV", "download_status_with_tags.csv")

	ctx := context.Background()

	repo, err := results.NewRepository(ctx, databaseURL)
	if err != nil {
		slog.Error("Failed to connect to results database.", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	tags, err := results.LoadTagCSV(tagCSV)
	if err != nil {
		slog.Warn("Tag CSV unavailable, loading without tags.", "error", err)
		tags = map[string]results.TagInfo{}
	}

	documents, err := results.ListDocuments(resultsDir)
	if err != nil {
		slog.Error("Failed to list documents.", "error", err, "dir", resultsDir)
		os.Exit(1)
	}

	loaded, failed := 0, 0
	for _, doc := range documents {
		logCtx := slog.With("document", doc)

		combined, meta, err := results.LoadDocument(resultsDir, doc)
		if err != nil {
			logCtx.Error("Failed to load document artifacts.", "error", err)
			failed++
			continue
		}

		info := tags[doc]
		id, err := repo.Insert(ctx, doc, combined, info.FileType, info.Tag, meta, results.StatusLoaded)
		if err != nil {
			logCtx.Error("Failed to insert document result.", "error", err)
			failed++
			continue
		}
		logCtx.Info("Loaded document result.", "resultId", id, "pages", meta.PageCount)
		loaded++
	}

	slog.Info("Result loading complete.", "loaded", loaded, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
