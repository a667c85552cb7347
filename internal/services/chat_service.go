package services

import (
	"context"
	"time"

	"github.com/markdave123-py/Mosaic/internal/core/retrieval"
	"github.com/markdave123-py/Mosaic/internal/models"
)

// Querier answers questions; *retrieval.Index implements it.
type Querier interface {
	Query(ctx context.Context, question string) retrieval.Answer
}

type ChatService struct {
	index   Querier
	session *Session
}

func NewChatService(index Querier, session *Session) *ChatService {
	return &ChatService{index: index, session: session}
}

// Ask queries the index and records both sides of the exchange, including
// answers that only report an error.
func (s *ChatService) Ask(ctx context.Context, question string) retrieval.Answer {
	asked := time.Now().UTC()
	ans := s.index.Query(ctx, question)

	s.session.appendMessages(
		models.ChatMessage{Role: "user", Content: question, CreatedAt: asked},
		models.ChatMessage{Role: "assistant", Content: ans.Text, CreatedAt: time.Now().UTC()},
	)
	return ans
}

func (s *ChatService) History() []models.ChatMessage {
	h := s.session.History()
	if h == nil {
		return []models.ChatMessage{}
	}
	return h
}

func (s *ChatService) ClearChat() {
	s.session.ClearHistory()
}
