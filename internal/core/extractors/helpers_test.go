package extractors

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeWAV writes a silent 16 kHz mono 16-bit PCM file.
func writeWAV(t *testing.T, path string, seconds float64) {
	t.Helper()
	const sampleRate = 16000
	dataSize := int(seconds*sampleRate) * 2

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	require.NoError(t, binary.Write(&buf, le, uint32(36+dataSize)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	require.NoError(t, binary.Write(&buf, le, uint32(16)))
	require.NoError(t, binary.Write(&buf, le, uint16(1)))            // PCM
	require.NoError(t, binary.Write(&buf, le, uint16(1)))            // mono
	require.NoError(t, binary.Write(&buf, le, uint32(sampleRate)))   // sample rate
	require.NoError(t, binary.Write(&buf, le, uint32(sampleRate*2))) // byte rate
	require.NoError(t, binary.Write(&buf, le, uint16(2)))            // block align
	require.NoError(t, binary.Write(&buf, le, uint16(16)))           // bits per sample
	buf.WriteString("data")
	require.NoError(t, binary.Write(&buf, le, uint32(dataSize)))
	buf.Write(make([]byte, dataSize))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// fakeMedia writes a WAV of wavSeconds for every ToWAV call and remembers the destinations.
type fakeMedia struct {
	t          *testing.T
	wavSeconds float64
	info       MediaInfo
	toWAVErr   error
	probeErr   error
	dsts       []string
}

func (f *fakeMedia) ToWAV(_ context.Context, _, dst string) error {
	f.dsts = append(f.dsts, dst)
	if f.toWAVErr != nil {
		return f.toWAVErr
	}
	writeWAV(f.t, dst, f.wavSeconds)
	return nil
}

func (f *fakeMedia) Probe(context.Context, string) (MediaInfo, error) {
	return f.info, f.probeErr
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, string) (string, error) {
	return f.text, f.err
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) Name() string { return "fake-ocr" }

func (f *fakeOCR) Recognize(context.Context, string) (string, error) {
	return f.text, f.err
}
