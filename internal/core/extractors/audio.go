package extractors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.Extractor = (*AudioExtractor)(nil)

// AudioExtractor transcodes audio to WAV and transcribes it. A nil
// transcriber degrades every file to the "could not request results" placeholder.
type AudioExtractor struct {
	tool        MediaTool
	transcriber core.Transcriber
}

func NewAudioExtractor(tool MediaTool, transcriber core.Transcriber) *AudioExtractor {
	return &AudioExtractor{tool: tool, transcriber: transcriber}
}

func (a *AudioExtractor) Extract(ctx context.Context, path string) ([]models.Record, error) {
	wavPath, err := tempWAV()
	if err != nil {
		return []models.Record{failedRecord("Audio", models.FileTypeAudio, path, err)}, nil
	}
	defer os.Remove(wavPath)

	if err := a.tool.ToWAV(ctx, path, wavPath); err != nil {
		return []models.Record{failedRecord("Audio", models.FileTypeAudio, path, err)}, nil
	}
	return []models.Record{a.fromWAV(ctx, wavPath, path)}, nil
}

// fromWAV transcribes an already transcoded file; source is the original upload.
func (a *AudioExtractor) fromWAV(ctx context.Context, wavPath, source string) models.Record {
	duration, err := wavDuration(wavPath)
	if err != nil {
		return failedRecord("Audio", models.FileTypeAudio, source, err)
	}

	var text string
	switch {
	case a.transcriber == nil:
		text = "[Audio file: Could not request results; speech recognition is not configured]"
	default:
		transcript, err := a.transcriber.Transcribe(ctx, wavPath)
		switch {
		case err == nil:
			text = transcript
		case errors.Is(err, core.ErrUnintelligible):
			text = "[Audio file: Speech recognition could not understand audio]"
		case errors.Is(err, core.ErrRecognitionUnavailable):
			text = fmt.Sprintf("[Audio file: Could not request results; %v]", err)
		default:
			return failedRecord("Audio", models.FileTypeAudio, source, err)
		}
	}

	meta := baseMeta(source, models.FileTypeAudio)
	meta[models.MetaDuration] = math.Round(duration*100) / 100
	return models.NewRecord(text, meta)
}
