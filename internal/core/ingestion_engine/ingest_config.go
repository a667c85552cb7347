package ingestion_engine

import (
	"errors"
	"io"
	"time"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// ErrFileTooLarge is returned before anything is written for uploads above MaxFileSize.
var ErrFileTooLarge = errors.New("file exceeds maximum upload size")

// IngestConfig tunes the ingestion coordinator.
//
// MaxFileSize: upload ceiling in bytes (0 disables the check).
// Timeout:     upper bound for extracting one item.
type IngestConfig struct {
	MaxFileSize int64
	Timeout     time.Duration
}

// Upload is one file of a batch.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// ItemResult reports the outcome of one batch item.
type ItemResult struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// BatchResult summarizes a batch. Failed items do not roll back the others.
type BatchResult struct {
	Items   []ItemResult `json:"items"`
	Records int          `json:"records"`
}

func (b BatchResult) Failed() int {
	n := 0
	for _, it := range b.Items {
		if it.Error != "" {
			n++
		}
	}
	return n
}

func uploadedFile(name string, category models.Category, size int64) models.UploadedFile {
	return models.UploadedFile{Name: name, Category: category, Size: size, UploadedAt: time.Now().UTC()}
}
