package llm

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/markdave123-py/Mosaic/internal/core"
)

func TestParseTranscript(t *testing.T) {
	text, err := parseTranscript("  hello there \n")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	_, err = parseTranscript("")
	assert.ErrorIs(t, err, core.ErrUnintelligible)

	_, err = parseTranscript("[unintelligible]")
	assert.ErrorIs(t, err, core.ErrUnintelligible)
}

func TestLoadImageForUpload_ReencodesBMP(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "pic.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, img))
	require.NoError(t, f.Close())

	data, format, err := loadImageForUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 3, decoded.Bounds().Dy())
}

func TestLoadImageForUpload_PassesJPEGThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.JPG")
	require.NoError(t, os.WriteFile(path, []byte("not decoded"), 0o644))

	data, format, err := loadImageForUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, "not decoded", string(data))
}

func TestGeminiLLM_Generate(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	ctx := context.Background()

	gc, err := NewGeminiClient(ctx, apiKey, 10)
	require.NoError(t, err)
	defer gc.Close()

	out, err := NewGeminiLLM(gc, "", 0).Generate(ctx, "Answer with one word.", "What colour is a clear daytime sky?")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(out), "blue")

	vecs, err := NewGeminiEmbedder(gc, "").EmbedTexts(ctx, []string{"hello", "world"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", 10)
	assert.Error(t, err)
}
