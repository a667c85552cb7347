package extractors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

func TestAudioExtractor_Transcript(t *testing.T) {
	media := &fakeMedia{t: t, wavSeconds: 1}
	ex := NewAudioExtractor(media, fakeTranscriber{text: "hello from the recording"})

	recs, err := ex.Extract(context.Background(), "/uploads/memo.mp3")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	assert.Equal(t, "hello from the recording", r.Text)
	assert.Equal(t, models.FileTypeAudio, r.FileType())
	assert.Equal(t, "memo.mp3", r.FileName())
	assert.Equal(t, "/uploads/memo.mp3", r.Metadata[models.MetaSource])
	assert.InDelta(t, 1.0, r.Metadata[models.MetaDuration], 0.01)

	require.Len(t, media.dsts, 1)
	assert.NoFileExists(t, media.dsts[0])
}

func TestAudioExtractor_Placeholders(t *testing.T) {
	cases := []struct {
		name       string
		transcribe core.Transcriber
		want       string
		failed     bool
	}{
		{
			name:       "unintelligible",
			transcribe: fakeTranscriber{err: core.ErrUnintelligible},
			want:       "[Audio file: Speech recognition could not understand audio]",
		},
		{
			name:       "service unavailable",
			transcribe: fakeTranscriber{err: fmt.Errorf("%w: quota exceeded", core.ErrRecognitionUnavailable)},
			want:       "[Audio file: Could not request results; speech recognition service unavailable: quota exceeded]",
		},
		{
			name:       "not configured",
			transcribe: nil,
			want:       "[Audio file: Could not request results; speech recognition is not configured]",
		},
		{
			name:       "other failure",
			transcribe: fakeTranscriber{err: errors.New("disk full")},
			want:       "[Audio file: memo.mp3. Error processing: disk full]",
			failed:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			media := &fakeMedia{t: t, wavSeconds: 0.5}
			ex := NewAudioExtractor(media, tc.transcribe)

			recs, err := ex.Extract(context.Background(), "/uploads/memo.mp3")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, tc.want, recs[0].Text)
			assert.Equal(t, tc.failed, recs[0].Failed())
			assert.NoFileExists(t, media.dsts[0])
		})
	}
}

func TestAudioExtractor_TranscodeFailureDegrades(t *testing.T) {
	media := &fakeMedia{t: t, toWAVErr: errors.New("ffmpeg: exit status 1")}
	ex := NewAudioExtractor(media, fakeTranscriber{text: "unused"})

	recs, err := ex.Extract(context.Background(), "/uploads/broken.ogg")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "[Audio file: broken.ogg. Error processing: ffmpeg: exit status 1]", recs[0].Text)
	assert.Equal(t, "ffmpeg: exit status 1", recs[0].Metadata[models.MetaError])
	assert.NoFileExists(t, media.dsts[0])
}
