package retrieval

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Mosaic/internal/logger"
	"github.com/markdave123-py/Mosaic/internal/models"
)

// chunk is the internal representation passed through the pipeline.
//
// RecordID: record the chunk was cut from.
// Meta:     metadata inherited from the record.
// Pos:      zero-based position of the chunk inside its record.
// Text:     chunk content (built from one or more fragments).
// TokenCnt: approximate token count (used for batching and overlap math).
type chunk struct {
	RecordID string
	Meta     map[string]any
	Pos      int
	Text     string
	TokenCnt int
}

// streamChunk cuts every record into token-bounded chunks with optional overlap.
// Chunks never span two records.
func streamChunk(
	ctx context.Context,
	g *errgroup.Group,
	records []models.Record,
	targetTokens int,
	overlapTokens int,
) <-chan chunk {
	out := make(chan chunk, 8)

	g.Go(func() error {
		defer close(out)

		for _, rec := range records {
			n, err := chunkRecord(ctx, rec, targetTokens, overlapTokens, out)
			if err != nil {
				return err
			}
			logger.Debug("record chunked", "record_id", rec.ID, "file_name", rec.FileName(), "chunks", n)
		}
		return nil
	})

	return out
}

// chunkRecord emits the chunks of one record and returns how many it sent.
func chunkRecord(ctx context.Context, rec models.Record, targetTokens, overlapTokens int, out chan<- chunk) (int, error) {
	var (
		buf    []string
		tokSum int
		fresh  int // tokens added since the last flush
		pos    int
	)

	// flush emits the current buffer as a chunk and keeps a tail of about
	// overlapTokens as the seed of the next one.
	flush := func() error {
		if fresh == 0 {
			return nil
		}
		ch := chunk{
			RecordID: rec.ID,
			Meta:     rec.Metadata,
			Pos:      pos,
			Text:     strings.Join(buf, "\n"),
			TokenCnt: tokSum,
		}
		pos++

		select {
		case out <- ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		fresh = 0
		if overlapTokens <= 0 {
			buf = buf[:0]
			tokSum = 0
			return nil
		}

		keep := []string{}
		remain := overlapTokens
		for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
			t := approxTokens(buf[j])
			if t > 2*overlapTokens {
				break
			}
			keep = append([]string{buf[j]}, keep...)
			remain -= t
		}
		// a tail that is the whole chunk would repeat it
		if len(keep) == len(buf) {
			keep = keep[:0]
		}
		buf = keep
		tokSum = 0
		for _, s := range buf {
			tokSum += approxTokens(s)
		}
		return nil
	}

	for _, frag := range fragments(rec.Text, targetTokens*4) {
		select {
		case <-ctx.Done():
			return pos, ctx.Err()
		default:
		}

		t := approxTokens(frag)
		buf = append(buf, frag)
		tokSum += t
		fresh += t

		if tokSum >= targetTokens {
			if err := flush(); err != nil {
				return pos, err
			}
		}
	}

	if err := flush(); err != nil {
		return pos, err
	}

	// a record without text still occupies one slot in the index
	if pos == 0 {
		ch := chunk{RecordID: rec.ID, Meta: rec.Metadata, Text: emptyRecordText(rec)}
		ch.TokenCnt = approxTokens(ch.Text)
		select {
		case out <- ch:
			pos++
		case <-ctx.Done():
			return pos, ctx.Err()
		}
	}
	return pos, nil
}

func emptyRecordText(rec models.Record) string {
	name := rec.FileName()
	if name == "" {
		name = "record " + rec.ID
	}
	return "[" + name + ": no text content]"
}

// fragments splits text into non-blank lines, cutting lines longer than
// maxRunes so a single fragment never exceeds one chunk.
func fragments(text string, maxRunes int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r := []rune(line)
		for maxRunes > 0 && len(r) > maxRunes {
			cut := maxRunes
			// back off to a space so words stay whole
			if i := lastSpace(r[:cut]); i > maxRunes/2 {
				cut = i
			}
			out = append(out, strings.TrimSpace(string(r[:cut])))
			r = r[cut:]
		}
		if s := strings.TrimSpace(string(r)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
