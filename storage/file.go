package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sokoerp/etims-bridge/interfaces"
)

// FileBackend archives audit records on the local file system, one JSON file
// per record.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file backend rooted at baseDir, creating the
// directory if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Store writes the record as a JSON file named by the record ID.
func (b *FileBackend) Store(ctx context.Context, record interfaces.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize audit record: %w", err)
	}

	path := b.recordPath(record.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}

	b.log.Debug("Stored audit record",
		slog.String("path", path),
		slog.Int("size", len(data)))
	return nil
}

// Fetch reads a record by ID. Returns ErrRecordNotFound if no file exists.
func (b *FileBackend) Fetch(ctx context.Context, id string) (interfaces.AuditRecord, error) {
	path := b.recordPath(id)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return interfaces.AuditRecord{}, interfaces.ErrRecordNotFound
	}
	if err != nil {
		return interfaces.AuditRecord{}, fmt.Errorf("failed to read audit record: %w", err)
	}

	var record interfaces.AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return interfaces.AuditRecord{}, fmt.Errorf("failed to decode audit record: %w", err)
	}
	return record, nil
}

// Available checks that the base directory still exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File audit backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) recordPath(id string) string {
	return filepath.Join(b.baseDir, id+".json")
}
