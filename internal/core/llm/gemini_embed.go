package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/Mosaic/internal/core"
)

// maxEmbedBatch is the most contents BatchEmbedContents accepts per call.
const maxEmbedBatch = 100

type GeminiEmbedder struct {
	gc        *GeminiClient
	modelName string
}

func NewGeminiEmbedder(gc *GeminiClient, modelName string) *GeminiEmbedder {
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	return &GeminiEmbedder{gc: gc, modelName: modelName}
}

func (g *GeminiEmbedder) Name() string { return "gemini/" + g.modelName }

// EmbedTexts batches texts via EmbeddingBatch, at most maxEmbedBatch per request.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.gc.client.EmbeddingModel(g.modelName)
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		batch := em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}

		var resp *genai.BatchEmbedContentsResponse
		err := g.gc.guard.Do(ctx, func() error {
			var err error
			resp, err = em.BatchEmbedContents(ctx, batch)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("gemini batch embed: %w", err)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)
