package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.VectorStore = (*PgVectorStore)(nil)

// PgVectorStore keeps chunks in Postgres with the pgvector extension.
type PgVectorStore struct {
	db *sql.DB
}

func NewPgVectorStore(ctx context.Context, databaseURL string) (*PgVectorStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	// Ensure bootstrap once
	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &PgVectorStore{db: db}, nil
}

func (c *PgVectorStore) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PgVectorStore) EnsureCollection(ctx context.Context, name, embedder string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO collections (name, embedder) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET embedder = EXCLUDED.embedder
		WHERE collections.embedder = ''
	`, name, embedder)
	if err != nil {
		return fmt.Errorf("ensure collection %q: %w", name, err)
	}
	return nil
}

func (c *PgVectorStore) CollectionEmbedder(ctx context.Context, name string) (string, error) {
	var embedder string
	err := c.db.QueryRowContext(ctx, `SELECT embedder FROM collections WHERE name = $1`, name).Scan(&embedder)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("collection embedder %q: %w", name, err)
	}
	return embedder, nil
}

// DropCollection relies on ON DELETE CASCADE to remove the chunks.
func (c *PgVectorStore) DropCollection(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name); err != nil {
		return fmt.Errorf("drop collection %q: %w", name, err)
	}
	return nil
}

// InsertChunks inserts chunks in a single transaction.
func (c *PgVectorStore) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunks
			(id, collection, record_id, position, text, metadata, embedding, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := json.Marshal(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata: %w", err)
		}
		var createdAt *time.Time
		if !ch.CreatedAt.IsZero() {
			createdAt = &ch.CreatedAt
		}

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.Collection, ch.RecordID, ch.Position, ch.Text, string(meta),
			pgvector.NewVector(ch.Embedding), ch.TokenCount, createdAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Search orders by cosine distance; Score is 1 - distance.
func (c *PgVectorStore) Search(ctx context.Context, collection string, queryVec []float32, limit int) ([]models.ScoredChunk, error) {
	const q = `
		SELECT id, record_id, position, text, metadata, embedding, token_count, created_at,
		       1 - (embedding <=> $2) AS score
		FROM chunks
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, collection, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			sc   models.ScoredChunk
			meta []byte
			emb  pgvector.Vector
		)
		if err := rows.Scan(&sc.ID, &sc.RecordID, &sc.Position, &sc.Text, &meta, &emb, &sc.TokenCount, &sc.CreatedAt, &sc.Score); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &sc.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of chunk %s: %w", sc.ID, err)
			}
		}
		sc.Collection = collection
		sc.Embedding = emb.Slice()
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (c *PgVectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
