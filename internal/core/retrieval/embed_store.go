package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Mosaic/internal/models"
)

// embedAndPersist consumes chunks, embeds them in batches, and writes them to
// the collection. It returns the number of chunks stored.
func (ix *Index) embedAndPersist(ctx context.Context, in <-chan chunk) (int, error) {
	batchSize := ix.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	batch := make([]chunk, 0, batchSize)
	stored := 0

	flush := func(items []chunk) error {
		if len(items) == 0 {
			return nil
		}

		texts := make([]string, len(items))
		for idx := range items {
			texts[idx] = items[idx].Text
		}

		vecs, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vecs) != len(items) {
			return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), len(items))
		}

		now := time.Now().UTC()
		rows := make([]models.Chunk, len(items))
		for k := range items {
			rows[k] = models.Chunk{
				ID:         uuid.NewString(),
				RecordID:   items[k].RecordID,
				Collection: ix.cfg.Collection,
				Position:   items[k].Pos,
				Text:       items[k].Text,
				Metadata:   items[k].Meta,
				Embedding:  vecs[k],
				TokenCount: items[k].TokenCnt,
				CreatedAt:  now,
			}
		}
		if err := ix.store.InsertChunks(ctx, rows); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		stored += len(rows)
		return nil
	}

	for c := range in {
		batch = append(batch, c)
		if len(batch) == batchSize {
			if err := flush(batch); err != nil {
				return stored, err
			}
			batch = batch[:0]
		}
	}
	if err := flush(batch); err != nil {
		return stored, err
	}
	return stored, nil
}
