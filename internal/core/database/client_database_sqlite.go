package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/markdave123-py/Mosaic/internal/core"
	"github.com/markdave123-py/Mosaic/internal/core/database/migrations"
	"github.com/markdave123-py/Mosaic/internal/models"
)

var _ core.VectorStore = (*SQLiteStore)(nil)

// SQLiteStore keeps chunks and their embeddings in a single database file and
// ranks them by brute-force cosine similarity.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) dataDir/vectors.db.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if dataDir == "" {
		return nil, errors.New("vector store directory is empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vector store directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) EnsureCollection(ctx context.Context, name, embedder string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, embedder) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET embedder = excluded.embedder
		WHERE collections.embedder = ''
	`, name, embedder)
	if err != nil {
		return fmt.Errorf("ensure collection %q: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) CollectionEmbedder(ctx context.Context, name string) (string, error) {
	var embedder string
	err := s.db.QueryRowContext(ctx, `SELECT embedder FROM collections WHERE name = ?`, name).Scan(&embedder)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("collection embedder %q: %w", name, err)
	}
	return embedder, nil
}

// DropCollection removes the collection and all of its chunks. Dropping a
// missing collection is not an error.
func (s *SQLiteStore) DropCollection(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete collection: %w", err)
	}
	return tx.Commit()
}

// InsertChunks inserts chunks in a single transaction.
func (s *SQLiteStore) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks
			(id, collection, record_id, position, text, metadata, embedding, token_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
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
		createdAt := ch.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.Collection, ch.RecordID, ch.Position, ch.Text, string(meta),
			float32SliceToBytes(ch.Embedding), ch.TokenCount, createdAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Search ranks every chunk of the collection against queryVec and returns the best limit.
func (s *SQLiteStore) Search(ctx context.Context, collection string, queryVec []float32, limit int) ([]models.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, position, text, metadata, embedding, token_count
		FROM chunks
		WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			sc   models.ScoredChunk
			meta string
			emb  []byte
		)
		if err := rows.Scan(&sc.ID, &sc.RecordID, &sc.Position, &sc.Text, &meta, &emb, &sc.TokenCount); err != nil {
			return nil, err
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &sc.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of chunk %s: %w", sc.ID, err)
			}
		}
		sc.Collection = collection
		sc.Embedding = bytesToFloat32Slice(emb)
		sc.Score = cosineSimilarity(queryVec, sc.Embedding)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
