//go:build tesseract

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/Mosaic/internal/core"
)

// TesseractOCR wraps a single gosseract client; tesseract handles are not
// safe for concurrent use, so calls are serialized.
type TesseractOCR struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractOCR loads the tesseract engine for the given languages (default "eng").
func NewTesseractOCR(languages ...string) (core.OCREngine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("tesseract language: %w", err)
	}
	return &TesseractOCR{client: client}, nil
}

func (t *TesseractOCR) Name() string { return "tesseract" }

func (t *TesseractOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("tesseract set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}

func (t *TesseractOCR) Close() error {
	return t.client.Close()
}
