package extractors

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*TextExtractor)(nil)

// TextExtractor reads plain text and markdown files whole.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// Extract drops invalid UTF-8 sequences rather than failing.
func (TextExtractor) Extract(_ context.Context, path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	text := strings.ToValidUTF8(string(data), "")
	return []models.Record{models.NewRecord(text, baseMeta(path, models.FileTypeText))}, nil
}
