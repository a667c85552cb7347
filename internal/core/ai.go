package core

import (
	"context"
	"errors"
)

// EmbeddingProvider turns texts into vectors. Name identifies the vector
// space; vectors from providers with different names are not comparable.
type EmbeddingProvider interface {
	Name() string
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// OCREngine reads printed text out of an image file.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Transcriber turns a 16 kHz mono WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

var (
	// ErrUnintelligible is returned by a Transcriber when the audio holds no recognizable speech.
	ErrUnintelligible = errors.New("speech recognition could not understand audio")
	// ErrRecognitionUnavailable wraps failures reaching the recognition service.
	ErrRecognitionUnavailable = errors.New("speech recognition service unavailable")
)
