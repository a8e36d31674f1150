// Package ingest seeds the corpus: it registers tagged source PDFs in
// Firestore and uploads them to the corpus bucket with their classification
// metadata.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/ocrpipeline/internal/config"
	"github.com/Lllllllleong/ocrpipeline/internal/gcp"
)

// DocumentRecord is the Firestore registration for one corpus document.
type DocumentRecord struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Tag              string    `firestore:"tag,omitempty"`
	FileType         string    `firestore:"fileType,omitempty"`
	SizeBytes        int64     `firestore:"sizeBytes,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// UploaderConfig holds configuration for the corpus uploader.
type UploaderConfig struct {
	ProjectID      string
	CorpusBucket   string
	CollectionName string
}

// Uploader dedups and uploads corpus documents.
type Uploader struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	config          UploaderConfig
}

// LoadUploaderConfig reads the uploader configuration from the environment.
func LoadUploaderConfig() (*UploaderConfig, error) {
	projectID := config.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	bucket := config.GetEnv("CORPUS_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("CORPUS_BUCKET environment variable must be set")
	}
	return &UploaderConfig{
		ProjectID:      projectID,
		CorpusBucket:   bucket,
		CollectionName: config.GetEnv("FIRESTORE_COLLECTION", "documents"),
	}, nil
}

// NewUploader creates a new Uploader instance.
func NewUploader(ctx context.Context, cfg UploaderConfig) (*Uploader, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &Uploader{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		config:          cfg,
	}, nil
}

// taggedName matches corpus filenames of the form {tag}_{number}.pdf.
var taggedName = regexp.MustCompile(`^(.+?)_(\d+)\.pdf$`)

// Run scans dir for tagged PDFs and uploads each one that is not already
// registered. It returns the number of uploaded and skipped files.
func (u *Uploader) Run(ctx context.Context, dir string) (uploaded, skipped int, err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to scan corpus dir: %w", err)
	}
	sort.Strings(paths)
	slog.Info("Scanning corpus directory.", "dir", dir, "files", len(paths))

	bucket := u.storageClient.Bucket(u.config.CorpusBucket)

	for _, path := range paths {
		filename := filepath.Base(path)
		logCtx := slog.With("file", filename)

		m := taggedName.FindStringSubmatch(filename)
		if m == nil {
			logCtx.Warn("Filename does not match {tag}_{number}.pdf, skipping.")
			skipped++
			continue
		}
		tag := m[1]

		fileHash, err := fileSHA256(path)
		if err != nil {
			return uploaded, skipped, fmt.Errorf("failed to hash %s: %w", filename, err)
		}

		duplicate, existingID, err := u.isDuplicate(ctx, fileHash)
		if err != nil {
			return uploaded, skipped, err
		}
		if duplicate {
			logCtx.Info("Duplicate file detected, skipping.", "existingDocId", existingID, "fileHash", fileHash)
			skipped++
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return uploaded, skipped, fmt.Errorf("failed to stat %s: %w", filename, err)
		}

		metadata := map[string]string{"tag": tag, "file_type": "pdf"}
		if err := gcp.UploadFile(ctx, bucket, path, filename, metadata); err != nil {
			return uploaded, skipped, fmt.Errorf("failed to upload %s: %w", filename, err)
		}

		record := DocumentRecord{
			FileHash:         fileHash,
			OriginalFilename: filename,
			Tag:              tag,
			FileType:         "pdf",
			SizeBytes:        info.Size(),
			Status:           "UPLOADED",
			CreatedAt:        time.Now(),
		}
		docRef, _, err := u.firestoreClient.Collection(u.config.CollectionName).Add(ctx, record)
		if err != nil {
			return uploaded, skipped, fmt.Errorf("failed to register %s: %w", filename, err)
		}

		logCtx.Info("Uploaded and registered.", "documentId", docRef.ID, "tag", tag)
		uploaded++
	}
	return uploaded, skipped, nil
}

func (u *Uploader) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	docs, err := u.firestoreClient.Collection(u.config.CollectionName).
		Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

// Close releases the uploader's clients.
func (u *Uploader) Close() error {
	var firstErr error
	if err := u.storageClient.Close(); err != nil {
		firstErr = err
	}
	if err := u.firestoreClient.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
