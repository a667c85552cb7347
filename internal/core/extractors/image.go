package extractors

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*ImageExtractor)(nil)

// ImageExtractor runs OCR over image files. The engine is created on first
// use and reused for the lifetime of the extractor.
type ImageExtractor struct {
	newEngine func() (core.OCREngine, error)

	once      sync.Once
	engine    core.OCREngine
	engineErr error
}

func NewImageExtractor(newEngine func() (core.OCREngine, error)) *ImageExtractor {
	return &ImageExtractor{newEngine: newEngine}
}

// Engine returns the shared OCR engine, initializing it exactly once.
func (e *ImageExtractor) Engine() (core.OCREngine, error) {
	e.once.Do(func() {
		if e.newEngine == nil {
			e.engineErr = fmt.Errorf("no OCR engine configured")
			return
		}
		e.engine, e.engineErr = e.newEngine()
	})
	return e.engine, e.engineErr
}

func (e *ImageExtractor) Extract(ctx context.Context, path string) ([]models.Record, error) {
	rec, err := e.extract(ctx, path)
	if err != nil {
		return []models.Record{failedRecord("Image", models.FileTypeImage, path, err)}, nil
	}
	return []models.Record{rec}, nil
}

func (e *ImageExtractor) extract(ctx context.Context, path string) (models.Record, error) {
	width, height, err := imageSize(path)
	if err != nil {
		return models.Record{}, err
	}

	engine, err := e.Engine()
	if err != nil {
		return models.Record{}, err
	}

	text, err := engine.Recognize(ctx, path)
	if err != nil {
		return models.Record{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = fmt.Sprintf("[Image file: %s. No text detected via OCR.]", filepath.Base(path))
	}

	meta := baseMeta(path, models.FileTypeImage)
	meta[models.MetaImageSize] = fmt.Sprintf("%dx%d", width, height)
	meta[models.MetaOCREngine] = engine.Name()
	return models.NewRecord(text, meta), nil
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
