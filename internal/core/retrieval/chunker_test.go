package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Mosaic/internal/models"
)

func collectChunks(t *testing.T, records []models.Record, target, overlap int) []chunk {
	t.Helper()
	g, ctx := errgroup.WithContext(context.Background())
	ch := streamChunk(ctx, g, records, target, overlap)

	var out []chunk
	for c := range ch {
		out = append(out, c)
	}
	require.NoError(t, g.Wait())
	return out
}

// line returns a 40-character (10 token) line.
func line(i int) string {
	return fmt.Sprintf("line %03d %s", i, strings.Repeat("x", 31))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 1, approxTokens("abc"))
	assert.Equal(t, 1, approxTokens("abcd"))
	assert.Equal(t, 2, approxTokens("abcde"))
	assert.Equal(t, 1, approxTokens("héé"))
}

func TestStreamChunk_ShortRecordIsOneChunk(t *testing.T) {
	rec := models.NewRecord("hello\n\n  world  ", nil)
	chunks := collectChunks(t, []models.Record{rec}, 512, 50)

	require.Len(t, chunks, 1)
	assert.Equal(t, "hello\nworld", chunks[0].Text)
	assert.Equal(t, rec.ID, chunks[0].RecordID)
	assert.Equal(t, 0, chunks[0].Pos)
}

func TestStreamChunk_SplitsWithOverlap(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, line(i))
	}
	rec := models.NewRecord(strings.Join(lines, "\n"), nil)

	chunks := collectChunks(t, []models.Record{rec}, 50, 10)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Pos)
		assert.LessOrEqual(t, c.TokenCnt, 60)
	}
	// the last line of a chunk opens the next one
	first := strings.Split(chunks[0].Text, "\n")
	assert.True(t, strings.HasPrefix(chunks[1].Text, first[len(first)-1]))
	// every line is covered
	all := strings.Join(func() []string {
		var s []string
		for _, c := range chunks {
			s = append(s, c.Text)
		}
		return s
	}(), "\n")
	for _, l := range lines {
		assert.Contains(t, all, l)
	}
}

func TestStreamChunk_NoTrailingOverlapOnlyChunk(t *testing.T) {
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, line(i))
	}
	// exactly 50 tokens: one chunk, and the kept overlap must not be emitted again
	chunks := collectChunks(t, []models.Record{models.NewRecord(strings.Join(lines, "\n"), nil)}, 50, 10)
	assert.Len(t, chunks, 1)
}

func TestStreamChunk_RecordsDoNotShareChunks(t *testing.T) {
	a := models.NewRecord("first record", map[string]any{models.MetaFileName: "a.txt"})
	b := models.NewRecord("second record", map[string]any{models.MetaFileName: "b.txt"})
	empty := models.NewRecord("   ", nil)

	chunks := collectChunks(t, []models.Record{a, empty, b}, 512, 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, a.ID, chunks[0].RecordID)
	assert.Equal(t, "a.txt", chunks[0].Meta[models.MetaFileName])
	assert.Equal(t, empty.ID, chunks[1].RecordID)
	assert.Equal(t, b.ID, chunks[2].RecordID)
	assert.Equal(t, 0, chunks[2].Pos)
}

func TestStreamChunk_BlankRecordGetsPlaceholder(t *testing.T) {
	rec := models.NewRecord(" \n\t\n", map[string]any{models.MetaFileName: "empty.md"})

	chunks := collectChunks(t, []models.Record{rec}, 512, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "[empty.md: no text content]", chunks[0].Text)
	assert.Equal(t, rec.ID, chunks[0].RecordID)
	assert.Equal(t, 0, chunks[0].Pos)
	assert.Positive(t, chunks[0].TokenCnt)
}

func TestFragments_CutsLongLines(t *testing.T) {
	long := strings.Repeat("word ", 100) // 500 runes
	frags := fragments(long, 120)

	require.Greater(t, len(frags), 1)
	for _, f := range frags {
		assert.LessOrEqual(t, len([]rune(f)), 120)
		assert.False(t, strings.HasPrefix(f, "ord"), "words should not be split")
	}
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(frags, " ")))
}

func TestBuildPrompt_RespectsBudget(t *testing.T) {
	hits := []models.ScoredChunk{
		{Chunk: models.Chunk{Text: strings.Repeat("a", 400), Metadata: map[string]any{models.MetaFileName: "one.txt"}}, Score: 0.9},
		{Chunk: models.Chunk{Text: strings.Repeat("b", 400), Metadata: map[string]any{models.MetaFileName: "two.txt"}}, Score: 0.8},
		{Chunk: models.Chunk{Text: strings.Repeat("c", 400), Metadata: map[string]any{models.MetaFileName: "three.txt"}}, Score: 0.7},
	}

	prompt, sources := buildPrompt("q?", hits, 250)
	require.Len(t, sources, 2)
	assert.Contains(t, prompt, "[1] one.txt")
	assert.Contains(t, prompt, "[2] two.txt")
	assert.NotContains(t, prompt, "three.txt")
	assert.True(t, strings.HasSuffix(prompt, "Question: q?"))
	assert.Equal(t, strings.Repeat("a", 200)+"...", sources[0].Snippet)

	_, sources = buildPrompt("q?", hits[:1], 10)
	assert.Len(t, sources, 1)
}
