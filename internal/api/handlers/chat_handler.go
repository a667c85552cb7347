package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/core/retrieval"
	"github.com/markdave123-py/Mosaic/internal/models"
)

// ChatAPI is what the chat endpoints need; *services.ChatService implements it.
type ChatAPI interface {
	Ask(ctx context.Context, question string) retrieval.Answer
	History() []models.ChatMessage
	ClearChat()
}

type ChatHandler struct {
	chat ChatAPI
}

func NewChatHandler(chat ChatAPI) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	Question string `json:"question"`
	Query    string `json:"query"`
}

// Query answers a question. Every outcome, including a missing index or an
// unavailable model, is a 200 with a displayable answer and its status.
func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	q := strings.TrimSpace(req.Question)
	if q == "" {
		q = strings.TrimSpace(req.Query)
	}
	if q == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.chat.Ask(r.Context(), q))
}

func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": h.chat.History()})
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.chat.ClearChat()
	w.WriteHeader(http.StatusNoContent)
}
