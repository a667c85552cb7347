// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/Mosaic/internal/api/handlers"
	"github.com/markdave123-py/Mosaic/internal/config"
	"github.com/markdave123-py/Mosaic/internal/core"
	db "github.com/markdave123-py/Mosaic/internal/core/database"
	"github.com/markdave123-py/Mosaic/internal/core/extractors"
	"github.com/markdave123-py/Mosaic/internal/core/ingestion_engine"
	"github.com/markdave123-py/Mosaic/internal/core/llm"
	objectclient "github.com/markdave123-py/Mosaic/internal/core/object-client"
	"github.com/markdave123-py/Mosaic/internal/core/retrieval"
	"github.com/markdave123-py/Mosaic/internal/services"
)

const (
	geminiRPM       = 60
	llmTemperature  = 0.7
	extractTimeout  = 15 * time.Minute
	maxContextToken = 3000
)

type App struct {
	Store   core.VectorStore
	Objects core.ObjectClient
	Index   *retrieval.Index
	Gemini  *llm.GeminiClient
	Server  *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{}

	store, err := db.NewVectorStore(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the vector store: %w", err)
	}
	a.Store = store
	log.Printf("Vector store %q initialized and ready.", cfg.VectorStore)

	objects, err := objectclient.NewObjectClient(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the object client: %w", err)
	}
	a.Objects = objects
	log.Println("Object client initialized and ready.")

	if cfg.AIAPIKey != "" {
		gc, err := llm.NewGeminiClient(appCtx, cfg.AIAPIKey, geminiRPM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("couldn't initialize the gemini client: %w", err)
		}
		a.Gemini = gc
	} else {
		log.Println("WARN: GEMINI_API_KEY not set; answers, vision OCR and transcription are disabled.")
	}

	embedder, err := newEmbedder(cfg, a.Gemini)
	if err != nil {
		a.Close()
		return nil, err
	}

	var generator core.LLMProvider
	if a.Gemini != nil {
		generator = llm.NewGeminiLLM(a.Gemini, cfg.GenModel, llmTemperature)
	}

	index, err := retrieval.Open(appCtx, store, embedder, generator, retrieval.Config{
		Collection:       cfg.CollectionName,
		ChunkTokens:      cfg.ChunkTokens,
		ChunkOverlap:     cfg.ChunkOverlap,
		TopK:             cfg.TopK,
		MaxContextTokens: maxContextToken,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't open the index: %w", err)
	}
	a.Index = index
	log.Printf("Index %q is %s.", index.Collection(), index.State())

	registry := newRegistry(cfg, a.Gemini)
	youtube := extractors.NewYouTubeExtractor(extractors.NewKkdaiSource(), cfg.TranscriptLanguage)

	session := services.NewSession()
	ingestor := ingestion_engine.NewDocumentIngestor(registry, youtube, objects, index, session, ingestion_engine.IngestConfig{
		MaxFileSize: cfg.MaxFileSizeBytes(),
		Timeout:     extractTimeout,
	})

	docService := services.NewDocumentService(ingestor, index, session)
	chatService := services.NewChatService(index, session)

	a.Server = NewServer(cfg, Handlers{
		Auth: handlers.NewAuthHandler(cfg.AdminPasswordHash, cfg.JWTSecret),
		Docs: handlers.NewDocumentHandler(docService, registry.Formats, cfg.MaxFileSizeBytes()),
		Chat: handlers.NewChatHandler(chatService),
	})

	return a, nil
}

// newEmbedder picks the embedding backend. "auto" uses Gemini when a key is
// configured and the local hash embedder otherwise.
func newEmbedder(cfg *config.Config, gc *llm.GeminiClient) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "hash":
		return llm.NewHashEmbedder(cfg.EmbedDim), nil
	case "gemini":
		if gc == nil {
			return nil, errors.New("EMBED_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return llm.NewGeminiEmbedder(gc, cfg.EmbedModel), nil
	case "", "auto":
		if gc != nil {
			return llm.NewGeminiEmbedder(gc, cfg.EmbedModel), nil
		}
		log.Println("WARN: no embedding API configured; using the local hash embedder.")
		return llm.NewHashEmbedder(cfg.EmbedDim), nil
	default:
		return nil, fmt.Errorf("unknown EMBED_PROVIDER %q", cfg.EmbedProvider)
	}
}

func newRegistry(cfg *config.Config, gc *llm.GeminiClient) *extractors.Registry {
	var transcriber core.Transcriber
	if gc != nil {
		transcriber = llm.NewGeminiTranscriber(gc, cfg.GenModel, cfg.TranscriptLanguage)
	}

	media := extractors.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
	audio := extractors.NewAudioExtractor(media, transcriber)

	return &extractors.Registry{
		Formats: cfg.Formats,
		Text:    extractors.NewTextExtractor(),
		PDF:     extractors.NewPDFExtractor(),
		Word:    extractors.NewWordExtractor(),
		Image:   extractors.NewImageExtractor(ocrFactory(cfg, gc)),
		Audio:   audio,
		Video:   extractors.NewVideoExtractor(media, audio),
	}
}

// ocrFactory defers engine creation to the first image so a missing OCR
// backend only degrades image records.
func ocrFactory(cfg *config.Config, gc *llm.GeminiClient) func() (core.OCREngine, error) {
	if cfg.OCREngine == "tesseract" {
		return func() (core.OCREngine, error) { return llm.NewTesseractOCR("eng") }
	}
	return func() (core.OCREngine, error) {
		if gc == nil {
			return nil, errors.New("vision OCR requires GEMINI_API_KEY")
		}
		return llm.NewGeminiVision(gc, cfg.GenModel), nil
	}
}

func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.Gemini != nil {
		_ = a.Gemini.Close()
	}
}
