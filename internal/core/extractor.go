package core

import (
	"context"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// Extractor converts one stored file into normalized records.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]models.Record, error)
}
