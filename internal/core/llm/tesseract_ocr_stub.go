//go:build !tesseract

package llm

import (
	"errors"

	"github.com/markdave123-py/Mosaic/internal/core"
)

// ErrTesseractUnavailable is returned when the binary was built without the tesseract tag.
var ErrTesseractUnavailable = errors.New("tesseract OCR not compiled in (build with -tags tesseract)")

func NewTesseractOCR(languages ...string) (core.OCREngine, error) {
	return nil, ErrTesseractUnavailable
}
