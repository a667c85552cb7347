package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/Mosaic/internal/core"
)

type GeminiLLM struct {
	gc          *GeminiClient
	modelName   string
	temperature float32
}

func NewGeminiLLM(gc *GeminiClient, modelName string, temperature float32) *GeminiLLM {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{gc: gc, modelName: modelName, temperature: temperature}
}

func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.gc.client.GenerativeModel(g.modelName)
	m.SetTemperature(g.temperature)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	var out string
	err := g.gc.guard.Do(ctx, func() error {
		resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
		if err != nil {
			return err
		}
		out = responseText(resp)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return out, nil
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
