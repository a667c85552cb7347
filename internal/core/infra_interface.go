package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// VectorStore persists embedded chunks grouped in named collections.
// It abstracts sqlite/pgvector so higher layers never depend on a specific DB.
//
// A collection remembers the embedder it was created with. EnsureCollection
// records embedder for a new collection or one that has none yet;
// CollectionEmbedder returns "" for a missing or untagged collection.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name, embedder string) error
	CollectionEmbedder(ctx context.Context, name string) (string, error)
	DropCollection(ctx context.Context, name string) error

	InsertChunks(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, collection string, queryVec []float32, limit int) ([]models.ScoredChunk, error)
	Count(ctx context.Context, collection string) (int, error)

	Close() error
}

// ObjectClient defines interactions with the upload directory, S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (location string, err error)
	DeleteFile(ctx context.Context, key string) error

	// GetObjectReader opens a stored object; a missing key wraps fs.ErrNotExist.
	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}
