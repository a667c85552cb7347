package retrieval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/Mosaic/internal/models"
)

var (
	ErrNotIndexed       = errors.New("no documents have been indexed")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrLLMUnavailable   = errors.New("language model unavailable")
	// ErrEmbedderMismatch means the collection holds vectors from another embedder.
	ErrEmbedderMismatch = errors.New("collection was built with a different embedder")
)

// NotIndexedMessage is the answer to any question asked before the first add.
const NotIndexedMessage = "No documents have been indexed yet. Please upload some documents first."

// Status tells how a query ended.
type Status int

const (
	StatusAnswered Status = iota
	StatusNotIndexed
	StatusIndexUnavailable
	StatusLLMUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAnswered:
		return "answered"
	case StatusNotIndexed:
		return "not_indexed"
	case StatusIndexUnavailable:
		return "index_unavailable"
	case StatusLLMUnavailable:
		return "llm_unavailable"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Source is one retrieved chunk that was handed to the model.
type Source struct {
	FileName string         `json:"file_name"`
	FileType string         `json:"file_type"`
	Score    float64        `json:"score"`
	Snippet  string         `json:"snippet"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Answer is the outcome of a query. Text is always displayable; Err is set
// for every status but StatusAnswered.
type Answer struct {
	Status  Status   `json:"status"`
	Text    string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
	Err     error    `json:"-"`
}

func notIndexedAnswer() Answer {
	return Answer{Status: StatusNotIndexed, Text: NotIndexedMessage, Err: ErrNotIndexed}
}

func failedAnswer(status Status, sentinel, err error) Answer {
	if err == nil {
		err = sentinel
	} else if !errors.Is(err, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return Answer{Status: status, Text: "Error processing query: " + err.Error(), Err: err}
}

const systemPrompt = "You are an intelligent assistant answering questions using only the provided context " +
	"extracted from the user's documents, images, audio, video and YouTube transcripts. " +
	"If the context does not contain the answer, say that you cannot find it in the indexed content."

// buildPrompt renders the retrieved chunks, best first, until maxTokens is spent.
// The best chunk is always included even when it alone exceeds the budget.
func buildPrompt(question string, hits []models.ScoredChunk, maxTokens int) (string, []Source) {
	var (
		sb      strings.Builder
		used    int
		sources []Source
	)
	for i, h := range hits {
		t := approxTokens(h.Text)
		if i > 0 && maxTokens > 0 && used+t > maxTokens {
			break
		}
		used += t

		name := metaString(h.Metadata, models.MetaFileName)
		fmt.Fprintf(&sb, "[%d] %s\n%s\n---\n", i+1, name, h.Text)

		sources = append(sources, Source{
			FileName: name,
			FileType: metaString(h.Metadata, models.MetaFileType),
			Score:    h.Score,
			Snippet:  snippet(h.Text, 200),
			Metadata: h.Metadata,
		})
	}
	return fmt.Sprintf("Context:\n%s\nQuestion: %s", sb.String(), question), sources
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// metaString reads a metadata value that may have round-tripped through JSON.
func metaString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
