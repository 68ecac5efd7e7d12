// Package storage archives the original statement files behind every import.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("archived file not found")

// FileInfo contains metadata about an archived statement
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BatchID   string    `json:"batch_id,omitempty"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"` // relative to the archive root
	CreatedAt time.Time `json:"created_at"`
}

// Archive stores statement files.
type Archive interface {
	// Save stores r under filename and tags it with the import batch.
	Save(ctx context.Context, filename, batchID string, r io.Reader) (*FileInfo, error)

	Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// List returns every archived file, oldest first.
	List(ctx context.Context) ([]*FileInfo, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
