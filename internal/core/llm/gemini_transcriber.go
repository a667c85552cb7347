package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/Mosaic/internal/core"
)

const unintelligibleMarker = "[UNINTELLIGIBLE]"

// GeminiTranscriber sends WAV audio inline to a multimodal Gemini model.
type GeminiTranscriber struct {
	gc        *GeminiClient
	modelName string
	language  string
}

func NewGeminiTranscriber(gc *GeminiClient, modelName, language string) *GeminiTranscriber {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if language == "" {
		language = "en"
	}
	return &GeminiTranscriber{gc: gc, modelName: modelName, language: language}
}

func (g *GeminiTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	prompt := fmt.Sprintf("Transcribe the speech in this recording verbatim (language: %s). "+
		"Reply with the transcript only. If there is no intelligible speech, reply exactly %s.",
		g.language, unintelligibleMarker)

	m := g.gc.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)

	var text string
	err = g.gc.guard.Do(ctx, func() error {
		resp, err := m.GenerateContent(ctx, genai.Blob{MIMEType: "audio/wav", Data: data}, genai.Text(prompt))
		if err != nil {
			return err
		}
		text = responseText(resp)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrRecognitionUnavailable, err)
	}
	return parseTranscript(text)
}

func parseTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, unintelligibleMarker) {
		return "", core.ErrUnintelligible
	}
	return text, nil
}

var _ core.Transcriber = (*GeminiTranscriber)(nil)
