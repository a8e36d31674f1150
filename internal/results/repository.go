package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusLoaded marks a row as successfully loaded.
const StatusLoaded = 1

// Repository persists combined document results in the ocr_results table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to the results database.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL must be provided")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Insert stores one combined document result and returns the row id.
func (r *Repository) Insert(ctx context.Context, fileID string, result *CombinedResult, fileType, tag string, metadata *DocumentMetadata, status int) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal result: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO ocr_results (file_id, result, file_type, tag, metadata, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		fileID, resultJSON, fileType, tag, metadataJSON, status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result for %s: %w", fileID, err)
	}
	return id, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

// TagInfo classifies one source document.
type TagInfo struct {
	Tag      string
	FileType string
}

// LoadTagCSV maps document names to their tag and file type from the corpus
// tag table. Filenames are keyed without the .pdf extension.
func LoadTagCSV(path string) (map[string]TagInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tag CSV: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("tag CSV is empty")
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"filename", "document_tag", "file_type"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("tag CSV is missing column %q", required)
		}
	}

	mappings := make(map[string]TagInfo, len(rows)-1)
	for _, row := range rows[1:] {
		filename := strings.TrimSuffix(row[col["filename"]], ".pdf")
		mappings[filename] = TagInfo{
			Tag:      row[col["document_tag"]],
			FileType: row[col["file_type"]],
		}
	}
	return mappings, nil
}
