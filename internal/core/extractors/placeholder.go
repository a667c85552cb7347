package extractors

import (
	"fmt"
	"path/filepath"

	"github.com/markdave123-py/Mosaic/internal/models"
)

func baseMeta(path string, ft models.FileType) map[string]any {
	return map[string]any{
		models.MetaFileName: filepath.Base(path),
		models.MetaFileType: ft,
		models.MetaSource:   path,
	}
}

// failedRecord is the degraded record emitted instead of an error by the
// image, audio and video extractors.
func failedRecord(label string, ft models.FileType, path string, err error) models.Record {
	meta := baseMeta(path, ft)
	meta[models.MetaError] = err.Error()
	text := fmt.Sprintf("[%s file: %s. Error processing: %s]", label, filepath.Base(path), err)
	return models.NewRecord(text, meta)
}
