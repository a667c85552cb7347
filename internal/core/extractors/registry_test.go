package extractors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Mosaic/internal/models"
)

type stubExtractor struct {
	ft    models.FileType
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, path string) ([]models.Record, error) {
	s.calls++
	return []models.Record{models.NewRecord("stub", baseMeta(path, s.ft))}, nil
}

func stubRegistry() (*Registry, map[string]*stubExtractor) {
	stubs := map[string]*stubExtractor{
		"text":  {ft: models.FileTypeText},
		"pdf":   {ft: models.FileTypePDF},
		"word":  {ft: models.FileTypeDocx},
		"image": {ft: models.FileTypeImage},
		"audio": {ft: models.FileTypeAudio},
		"video": {ft: models.FileTypeVideo},
	}
	return &Registry{
		Formats: DefaultFormats(),
		Text:    stubs["text"],
		PDF:     stubs["pdf"],
		Word:    stubs["word"],
		Image:   stubs["image"],
		Audio:   stubs["audio"],
		Video:   stubs["video"],
	}, stubs
}

func TestRegistry_Detect(t *testing.T) {
	r, _ := stubRegistry()

	cases := map[string]Format{
		"notes.txt":   FormatText,
		"README.MD":   FormatText,
		"paper.pdf":   FormatPDF,
		"letter.docx": FormatDocx,
		"old.doc":     FormatDoc,
		"a.jpg":       FormatImage,
		"a.JPEG":      FormatImage,
		"a.png":       FormatImage,
		"a.gif":       FormatImage,
		"a.bmp":       FormatImage,
		"s.mp3":       FormatAudio,
		"s.wav":       FormatAudio,
		"s.m4a":       FormatAudio,
		"s.ogg":       FormatAudio,
		"v.mp4":       FormatVideo,
		"v.avi":       FormatVideo,
		"v.mov":       FormatVideo,
		"v.mkv":       FormatVideo,
	}
	for name, want := range cases {
		got, err := r.Detect(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestRegistry_DetectUnsupported(t *testing.T) {
	r, _ := stubRegistry()
	for _, name := range []string{"binary.exe", "archive.tar.gz", "noext"} {
		_, err := r.Detect(name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestRegistry_ExtractDispatchesEverySupportedExtension(t *testing.T) {
	r, stubs := stubRegistry()
	f := DefaultFormats()

	var all []string
	all = append(all, f.Text...)
	all = append(all, f.Image...)
	all = append(all, f.Audio...)
	all = append(all, f.Video...)

	for _, ext := range all {
		recs, err := r.Extract(context.Background(), "/uploads/file"+ext)
		require.NoError(t, err, ext)
		require.NotEmpty(t, recs, ext)
		assert.Equal(t, "file"+ext, recs[0].FileName())
	}

	assert.Equal(t, 2, stubs["word"].calls)
	assert.Equal(t, 1, stubs["pdf"].calls)
	assert.Equal(t, 2, stubs["text"].calls)
	assert.Equal(t, 5, stubs["image"].calls)
}

func TestRegistry_ExtractUnsupported(t *testing.T) {
	r, _ := stubRegistry()
	_, err := r.Extract(context.Background(), "/tmp/x.exe")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegistry_CustomAllowList(t *testing.T) {
	r, _ := stubRegistry()
	r.Formats.Text = []string{".txt", ".rst"}

	got, err := r.Detect("guide.rst")
	require.NoError(t, err)
	assert.Equal(t, FormatText, got)

	_, err = r.Detect("paper.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRegistry_RealTextExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "n.md")
	require.NoError(t, os.WriteFile(path, []byte("# heading"), 0o644))

	r := &Registry{Formats: DefaultFormats(), Text: NewTextExtractor()}
	recs, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "# heading", recs[0].Text)
}

func TestFormats_Category(t *testing.T) {
	f := DefaultFormats()
	assert.Equal(t, models.CategoryText, f.Category(".PDF"))
	assert.Equal(t, models.CategoryImage, f.Category(".bmp"))
	assert.Equal(t, models.CategoryAudio, f.Category(".ogg"))
	assert.Equal(t, models.CategoryVideo, f.Category(".mkv"))
	assert.Equal(t, models.CategoryUnknown, f.Category(".exe"))
}
