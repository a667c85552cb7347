package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*WordExtractor)(nil)

// WordExtractor converts .docx (and legacy .doc, which needs wvText on PATH)
// into a single record of newline-separated paragraphs.
type WordExtractor struct{}

func NewWordExtractor() *WordExtractor { return &WordExtractor{} }

func (WordExtractor) Extract(_ context.Context, path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var body string
	if strings.EqualFold(filepath.Ext(path), ".doc") {
		body, _, err = docconv.ConvertDoc(f)
	} else {
		body, _, err = docconv.ConvertDocx(f)
	}
	if err != nil {
		return nil, fmt.Errorf("docconv: %w", err)
	}

	return []models.Record{models.NewRecord(joinParagraphs(body), baseMeta(path, models.FileTypeDocx))}, nil
}

func joinParagraphs(body string) string {
	var paras []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n")
}
