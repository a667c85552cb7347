package db

import (
	"context"
	"fmt"

	"github.com/markdave123-py/Mosaic/internal/config"
	"github.com/markdave123-py/Mosaic/internal/core"
)

// NewVectorStore opens the backend selected by VECTOR_STORE.
func NewVectorStore(ctx context.Context, cfg *config.Config) (core.VectorStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("vector store configuration is nil")
	}
	switch cfg.VectorStore {
	case "", "sqlite":
		return NewSQLiteStore(cfg.VectorStoreDir)
	case "pgvector", "postgres":
		return NewPgVectorStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE %q", cfg.VectorStore)
	}
}
