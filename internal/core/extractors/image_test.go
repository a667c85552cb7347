package extractors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

func imageExtractorWith(engine core.OCREngine, initErr error, inits *int) *ImageExtractor {
	return NewImageExtractor(func() (core.OCREngine, error) {
		*inits++
		return engine, initErr
	})
}

func TestImageExtractor_RecognizedText(t *testing.T) {
	path := writePNG(t, t.TempDir(), "scan.png", 40, 20)
	inits := 0
	ex := imageExtractorWith(&fakeOCR{text: "  INVOICE 42 \n"}, nil, &inits)

	recs, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "INVOICE 42", r.Text)
	assert.Equal(t, models.FileTypeImage, r.FileType())
	assert.Equal(t, "40x20", r.Metadata[models.MetaImageSize])
	assert.Equal(t, "fake-ocr", r.Metadata[models.MetaOCREngine])
	assert.False(t, r.Failed())
}

func TestImageExtractor_NoTextPlaceholder(t *testing.T) {
	path := writePNG(t, t.TempDir(), "blank.png", 5, 5)
	inits := 0
	ex := imageExtractorWith(&fakeOCR{text: " \n "}, nil, &inits)

	recs, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "[Image file: blank.png. No text detected via OCR.]", recs[0].Text)
	assert.False(t, recs[0].Failed())
}

func TestImageExtractor_OCRFailureDegrades(t *testing.T) {
	path := writePNG(t, t.TempDir(), "photo.png", 5, 5)
	inits := 0
	ex := imageExtractorWith(&fakeOCR{err: errors.New("engine crashed")}, nil, &inits)

	recs, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "[Image file: photo.png. Error processing: engine crashed]", recs[0].Text)
	assert.Equal(t, "engine crashed", recs[0].Metadata[models.MetaError])
	assert.Equal(t, models.FileTypeImage, recs[0].FileType())
}

func TestImageExtractor_UndecodableImageDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	inits := 0
	ex := imageExtractorWith(&fakeOCR{text: "x"}, nil, &inits)

	recs, err := ex.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Failed())
	assert.Contains(t, recs[0].Text, "[Image file: fake.jpg. Error processing:")
}

func TestImageExtractor_EngineInitializedOnce(t *testing.T) {
	dir := t.TempDir()
	inits := 0
	ex := imageExtractorWith(&fakeOCR{text: "hi"}, nil, &inits)
	assert.Zero(t, inits)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := ex.Extract(context.Background(), writePNG(t, dir, name, 2, 2))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inits)
}

func TestImageExtractor_EngineInitFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	inits := 0
	ex := imageExtractorWith(nil, errors.New("tesseract missing"), &inits)

	for _, name := range []string{"a.png", "b.png"} {
		recs, err := ex.Extract(context.Background(), writePNG(t, dir, name, 2, 2))
		require.NoError(t, err)
		assert.Equal(t, "tesseract missing", recs[0].Metadata[models.MetaError])
	}
	assert.Equal(t, 1, inits)
}
