package services

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Mosaic/internal/core/extractors"
	"github.com/markdave123-py/Mosaic/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/Mosaic/internal/core/object-client"
	"github.com/markdave123-py/Mosaic/internal/core/retrieval"
	"github.com/markdave123-py/Mosaic/internal/models"
)

type fakeIndex struct {
	count    int
	clearErr error
	cleared  int
	answer   retrieval.Answer
}

func (f *fakeIndex) DocumentCount(context.Context) int { return f.count }
func (f *fakeIndex) Clear(context.Context) error {
	f.cleared++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.count = 0
	return nil
}
func (f *fakeIndex) Query(context.Context, string) retrieval.Answer { return f.answer }

func TestSessionTracksFilesConcurrently(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Track(models.UploadedFile{Name: "a.txt", Category: models.CategoryText})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Files(), 50)

	files := s.Files()
	files[0].Name = "mutated"
	assert.Equal(t, "a.txt", s.Files()[0].Name)

	s.ResetFiles()
	assert.Empty(t, s.Files())
}

func TestDocumentService_ListAndClear(t *testing.T) {
	session := NewSession()
	idx := &fakeIndex{count: 7}
	svc := NewDocumentService(nil, idx, session)
	ctx := context.Background()

	empty := svc.List(ctx)
	assert.NotNil(t, empty.Files)
	assert.Equal(t, 0, empty.Uploaded)

	session.Track(models.UploadedFile{Name: "a.pdf", Category: models.CategoryText, Size: 10})
	session.Track(models.UploadedFile{Name: "YouTube: xyz", Category: models.CategoryYouTube})
	session.appendMessages(models.ChatMessage{Role: "user", Content: "hi"})

	l := svc.List(ctx)
	assert.Equal(t, 2, l.Uploaded)
	assert.Equal(t, 7, l.DocumentCount)

	require.NoError(t, svc.ClearIndex(ctx))
	assert.Equal(t, 1, idx.cleared)
	assert.Empty(t, session.Files())
	assert.Len(t, session.History(), 1, "clearing the index keeps the chat")
	assert.Equal(t, 0, svc.DocumentCount(ctx))
}

func TestDocumentService_ClearFailureKeepsFiles(t *testing.T) {
	session := NewSession()
	session.Track(models.UploadedFile{Name: "a.txt"})
	svc := NewDocumentService(nil, &fakeIndex{clearErr: errors.New("locked")}, session)

	err := svc.ClearIndex(context.Background())
	require.Error(t, err)
	assert.Len(t, session.Files(), 1)
}

func TestDocumentService_DownloadReturnsStoredUpload(t *testing.T) {
	local, err := objectclient.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	registry := &extractors.Registry{Formats: extractors.DefaultFormats(), Text: extractors.NewTextExtractor()}
	session := NewSession()
	ing := ingestion_engine.NewDocumentIngestor(registry, nil, local, nil, session, ingestion_engine.IngestConfig{})
	svc := NewDocumentService(ing, &fakeIndex{}, session)
	ctx := context.Background()

	_, err = ing.ProcessUpload(ctx, "minutes.md", strings.NewReader("# minutes"), 9)
	require.NoError(t, err)

	rc, err := svc.Download(ctx, "minutes.md")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "# minutes", string(b))

	_, err = svc.Download(ctx, "other.md")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestChatService_RecordsExchange(t *testing.T) {
	session := NewSession()
	idx := &fakeIndex{answer: retrieval.Answer{Status: retrieval.StatusNotIndexed, Text: retrieval.NotIndexedMessage}}
	chat := NewChatService(idx, session)

	assert.Empty(t, chat.History())
	assert.NotNil(t, chat.History())

	ans := chat.Ask(context.Background(), "what is in my files?")
	assert.Equal(t, retrieval.StatusNotIndexed, ans.Status)

	h := chat.History()
	require.Len(t, h, 2)
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "what is in my files?", h[0].Content)
	assert.Equal(t, "assistant", h[1].Role)
	assert.Equal(t, retrieval.NotIndexedMessage, h[1].Content)

	chat.ClearChat()
	assert.Empty(t, chat.History())
}
