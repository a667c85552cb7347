package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/logger"
	"github.com/markdave123-py/Mosaic/internal/models"
)

// State of the index as seen by queries.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Config tunes chunking, batching and retrieval.
//
// ChunkTokens:      approximate tokens per chunk.
// ChunkOverlap:     tokens repeated from the end of the previous chunk.
// BatchSize:        chunks embedded and written per batch.
// TopK:             chunks retrieved per question.
// MaxContextTokens: budget for retrieved text in the prompt.
type Config struct {
	Collection       string
	ChunkTokens      int
	ChunkOverlap     int
	BatchSize        int
	TopK             int
	MaxContextTokens int
}

func DefaultConfig() Config {
	return Config{
		Collection:       "multimodal_rag",
		ChunkTokens:      512,
		ChunkOverlap:     50,
		BatchSize:        32,
		TopK:             5,
		MaxContextTokens: 3000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Collection == "" {
		c.Collection = d.Collection
	}
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = d.ChunkTokens
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkTokens {
		c.ChunkOverlap = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.MaxContextTokens <= 0 {
		c.MaxContextTokens = d.MaxContextTokens
	}
	return c
}

// Index is the single owner of the persistent collection. All operations are
// serialized, so one add or query runs at a time.
type Index struct {
	mu       sync.Mutex
	store    core.VectorStore
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	cfg      Config
	state    State
	mismatch error // collection embedded by another provider; cleared by Clear
}

// Open attaches to the collection and marks the index READY when it already
// holds chunks from a previous run. A nil llm leaves synthesis unavailable.
func Open(ctx context.Context, store core.VectorStore, embedder core.EmbeddingProvider, llm core.LLMProvider, cfg Config) (*Index, error) {
	if store == nil {
		return nil, errors.New("retrieval: vector store is required")
	}
	if embedder == nil {
		return nil, errors.New("retrieval: embedder is required")
	}

	ix := &Index{store: store, embedder: embedder, llm: llm, cfg: cfg.withDefaults()}

	n, err := store.Count(ctx, ix.cfg.Collection)
	switch {
	case err != nil:
		logger.Warn("could not load existing index", "collection", ix.cfg.Collection, "error", err)
	case n > 0:
		ix.state = StateReady
		logger.Info("loaded existing index", "collection", ix.cfg.Collection, "chunks", n)
		ix.checkEmbedder(ctx)
	}
	return ix, nil
}

// checkEmbedder compares the embedder recorded on a loaded collection with
// the current one. On mismatch queries and adds fail until the index is cleared.
func (ix *Index) checkEmbedder(ctx context.Context) {
	stored, err := ix.store.CollectionEmbedder(ctx, ix.cfg.Collection)
	if err != nil {
		logger.Warn("could not read collection embedder", "collection", ix.cfg.Collection, "error", err)
		return
	}
	if stored != "" && stored != ix.embedder.Name() {
		ix.mismatch = ix.mismatchErr(stored)
		logger.Warn("collection embedder mismatch", "collection", ix.cfg.Collection,
			"stored", stored, "current", ix.embedder.Name())
	}
}

func (ix *Index) mismatchErr(stored string) error {
	return fmt.Errorf("%w: %q was built with %s, current embedder is %s; clear the index to rebuild it",
		ErrEmbedderMismatch, ix.cfg.Collection, stored, ix.embedder.Name())
}

// prepareCollection creates the collection tagged with the current embedder.
// An empty collection left behind by another embedder is recreated.
func (ix *Index) prepareCollection(ctx context.Context) error {
	name := ix.embedder.Name()
	stored, err := ix.store.CollectionEmbedder(ctx, ix.cfg.Collection)
	if err != nil {
		return err
	}
	if stored != "" && stored != name {
		n, err := ix.store.Count(ctx, ix.cfg.Collection)
		if err != nil {
			return err
		}
		if n > 0 {
			return ix.mismatchErr(stored)
		}
		if err := ix.store.DropCollection(ctx, ix.cfg.Collection); err != nil {
			return err
		}
	}
	return ix.store.EnsureCollection(ctx, ix.cfg.Collection, name)
}

func (ix *Index) State() State {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.state
}

func (ix *Index) Collection() string { return ix.cfg.Collection }

// Add chunks, embeds and stores records. Records are immutable once added;
// adding the same content twice stores it twice.
func (ix *Index) Add(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.mismatch != nil {
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, ix.mismatch)
	}
	if ix.state == StateUninitialized {
		if err := ix.prepareCollection(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// records -> chunks
	chunkCh := streamChunk(gctx, g, records, ix.cfg.ChunkTokens, ix.cfg.ChunkOverlap)

	// chunks -> embed + persist
	var stored int
	g.Go(func() error {
		var err error
		stored, err = ix.embedAndPersist(gctx, chunkCh)
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	if stored > 0 {
		ix.state = StateReady
	}
	logger.Info("records indexed", "collection", ix.cfg.Collection, "records", len(records), "chunks", stored)
	return nil
}

// Query answers question from the top-k chunks. It never returns an error;
// failures are reported through Answer.Status.
func (ix *Index) Query(ctx context.Context, question string) Answer {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == StateUninitialized {
		return notIndexedAnswer()
	}
	if ix.mismatch != nil {
		return failedAnswer(StatusIndexUnavailable, ErrIndexUnavailable, ix.mismatch)
	}

	question = strings.TrimSpace(question)

	vecs, err := ix.embedder.EmbedTexts(ctx, []string{question})
	if err != nil || len(vecs) == 0 {
		if err == nil {
			err = errors.New("empty embedding")
		}
		logger.Error("query embedding failed", "error", err)
		return failedAnswer(StatusIndexUnavailable, ErrIndexUnavailable, err)
	}

	hits, err := ix.store.Search(ctx, ix.cfg.Collection, vecs[0], ix.cfg.TopK)
	if err != nil {
		logger.Error("vector search failed", "collection", ix.cfg.Collection, "error", err)
		return failedAnswer(StatusIndexUnavailable, ErrIndexUnavailable, err)
	}

	prompt, sources := buildPrompt(question, hits, ix.cfg.MaxContextTokens)

	if ix.llm == nil {
		return failedAnswer(StatusLLMUnavailable, ErrLLMUnavailable, errors.New("no API key configured"))
	}
	text, err := ix.llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		logger.Error("answer synthesis failed", "error", err)
		return failedAnswer(StatusLLMUnavailable, ErrLLMUnavailable, err)
	}

	return Answer{Status: StatusAnswered, Text: text, Sources: sources}
}

// DocumentCount is the number of stored chunks, or 0 when the store cannot be read.
func (ix *Index) DocumentCount(ctx context.Context) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n, err := ix.store.Count(ctx, ix.cfg.Collection)
	if err != nil {
		logger.Warn("count failed", "collection", ix.cfg.Collection, "error", err)
		return 0
	}
	return n
}

// Clear drops and recreates the collection. Clearing an empty index is a no-op.
func (ix *Index) Clear(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.DropCollection(ctx, ix.cfg.Collection); err != nil {
		return fmt.Errorf("%w: drop: %v", ErrIndexUnavailable, err)
	}
	if err := ix.store.EnsureCollection(ctx, ix.cfg.Collection, ix.embedder.Name()); err != nil {
		return fmt.Errorf("%w: recreate: %v", ErrIndexUnavailable, err)
	}
	ix.state = StateUninitialized
	ix.mismatch = nil
	logger.Info("index cleared", "collection", ix.cfg.Collection)
	return nil
}
