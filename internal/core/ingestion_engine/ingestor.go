package ingestion_engine

import (
	"context"
	"io"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// Ingestor turns uploads and remote videos into indexed records.
type Ingestor interface {
	ProcessUpload(ctx context.Context, name string, r io.Reader, size int64) ([]models.Record, error)
	ProcessBatch(ctx context.Context, uploads []Upload) (BatchResult, error)
	ProcessURL(ctx context.Context, url string) ([]models.Record, error)
	OpenUpload(ctx context.Context, name string) (io.ReadCloser, error)
}

// Indexer receives the records of a batch.
type Indexer interface {
	Add(ctx context.Context, records []models.Record) error
}

// Tracker remembers what was uploaded in the current session.
type Tracker interface {
	Track(file models.UploadedFile)
}
