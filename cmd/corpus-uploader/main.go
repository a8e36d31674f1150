package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lllllllleong/ocrpipeline/internal/config"
	"github.com/Lllllllleong/ocrpipeline/internal/ingest"
)

// corpus-uploader registers tagged source PDFs and uploads them to the
// corpus bucket, skipping files whose content hash is already registered.
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ingest.LoadUploaderConfig()
	if err != nil {
		slog.Error("Failed to load configuration.", "error", err)
		os.Exit(1)
	}

	uploader, err := ingest.NewUploader(ctx, *cfg)
	if err != nil {
		slog.Error("Failed to initialize uploader.", "error", err)
		os.Exit(1)
	}
	defer uploader.Close()

	corpusDir := config.GetEnv("CORPUS_DIR", "downloaded_pdfs")
	uploaded, skipped, err := uploader.Run(ctx, corpusDir)
	if err != nil {
		slog.Error("Upload run failed.", "error", err, "uploaded", uploaded, "skipped", skipped)
		os.Exit(1)
	}
	slog.Info("Upload run complete.", "uploaded", uploaded, "skipped", skipped)
}
