package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/markdave123-py/Mosaic/internal/core/ingestion_engine"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ ingestion_engine.Tracker = (*Session)(nil)

// Session is the state of one running service: what was uploaded and the
// chat so far. It replaces the per-browser state of a UI.
type Session struct {
	mu      sync.RWMutex
	files   []models.UploadedFile
	history []models.ChatMessage
}

func NewSession() *Session { return &Session{} }

func (s *Session) Track(file models.UploadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, file)
}

// Files returns a copy of the uploaded file list, oldest first.
func (s *Session) Files() []models.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.UploadedFile(nil), s.files...)
}

func (s *Session) ResetFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

func (s *Session) appendMessages(msgs ...models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

// History returns a copy of the chat history, oldest first.
func (s *Session) History() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.history...)
}

func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// IndexAdmin is the part of the retrieval index the document service manages.
type IndexAdmin interface {
	DocumentCount(ctx context.Context) int
	Clear(ctx context.Context) error
}

// Listing is what the document list endpoint returns.
type Listing struct {
	Files         []models.UploadedFile `json:"files"`
	Uploaded      int                   `json:"uploaded"`
	DocumentCount int                   `json:"document_count"`
}

type DocumentService struct {
	ingestor ingestion_engine.Ingestor
	index    IndexAdmin
	session  *Session
}

func NewDocumentService(ingestor ingestion_engine.Ingestor, index IndexAdmin, session *Session) *DocumentService {
	return &DocumentService{ingestor: ingestor, index: index, session: session}
}

func (s *DocumentService) Upload(ctx context.Context, uploads []ingestion_engine.Upload) (ingestion_engine.BatchResult, error) {
	return s.ingestor.ProcessBatch(ctx, uploads)
}

func (s *DocumentService) AddYouTube(ctx context.Context, url string) ([]models.Record, error) {
	return s.ingestor.ProcessURL(ctx, url)
}

// Download opens the stored copy of an uploaded file.
func (s *DocumentService) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.ingestor.OpenUpload(ctx, name)
}

func (s *DocumentService) List(ctx context.Context) Listing {
	files := s.session.Files()
	if files == nil {
		files = []models.UploadedFile{}
	}
	return Listing{
		Files:         files,
		Uploaded:      len(files),
		DocumentCount: s.index.DocumentCount(ctx),
	}
}

func (s *DocumentService) DocumentCount(ctx context.Context) int {
	return s.index.DocumentCount(ctx)
}

// ClearIndex empties the index and forgets the uploaded file list.
// The chat history is kept.
func (s *DocumentService) ClearIndex(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	s.session.ResetFiles()
	return nil
}
