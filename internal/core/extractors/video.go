package extractors

import (
	"context"
	"math"
	"os"
	"path/filepath"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*VideoExtractor)(nil)

// VideoExtractor pulls the audio track out of a video and hands it to the
// audio extractor, then relabels the record as video.
type VideoExtractor struct {
	tool  MediaTool
	audio *AudioExtractor
}

func NewVideoExtractor(tool MediaTool, audio *AudioExtractor) *VideoExtractor {
	return &VideoExtractor{tool: tool, audio: audio}
}

func (v *VideoExtractor) Extract(ctx context.Context, path string) ([]models.Record, error) {
	info, err := v.tool.Probe(ctx, path)
	if err != nil {
		return []models.Record{failedRecord("Video", models.FileTypeVideo, path, err)}, nil
	}

	wavPath, err := tempWAV()
	if err != nil {
		return []models.Record{failedRecord("Video", models.FileTypeVideo, path, err)}, nil
	}
	defer os.Remove(wavPath)

	if err := v.tool.ToWAV(ctx, path, wavPath); err != nil {
		return []models.Record{failedRecord("Video", models.FileTypeVideo, path, err)}, nil
	}

	rec := v.audio.fromWAV(ctx, wavPath, path)
	rec.Metadata[models.MetaFileName] = filepath.Base(path)
	rec.Metadata[models.MetaFileType] = models.FileTypeVideo
	rec.Metadata[models.MetaSource] = path
	rec.Metadata[models.MetaDuration] = math.Round(info.DurationSeconds*100) / 100
	rec.Metadata[models.MetaFPS] = math.Round(info.FPS*100) / 100
	return []models.Record{rec}, nil
}
