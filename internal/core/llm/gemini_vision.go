package llm

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/google/generative-ai-go/genai"
	_ "golang.org/x/image/bmp"

	"github.com/markdave123-py/Mosaic/internal/core"
)

const ocrPrompt = "Transcribe every piece of text visible in this image exactly as written, preserving line breaks. " +
	"Do not describe the image. If the image contains no text, reply with an empty message."

// GeminiVision performs OCR with a multimodal Gemini model.
type GeminiVision struct {
	gc        *GeminiClient
	modelName string
}

func NewGeminiVision(gc *GeminiClient, modelName string) *GeminiVision {
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiVision{gc: gc, modelName: modelName}
}

func (g *GeminiVision) Name() string { return "gemini-vision" }

func (g *GeminiVision) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, format, err := loadImageForUpload(imagePath)
	if err != nil {
		return "", err
	}

	m := g.gc.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)

	var text string
	err = g.gc.guard.Do(ctx, func() error {
		resp, err := m.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(ocrPrompt))
		if err != nil {
			return err
		}
		text = responseText(resp)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// loadImageForUpload returns png and jpeg files as-is and re-encodes other
// formats to png, which the vision endpoint accepts.
func loadImageForUpload(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return data, "png", nil
	case ".jpg", ".jpeg":
		return data, "jpeg", nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), "png", nil
}

var _ core.OCREngine = (*GeminiVision)(nil)
