package llm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	vecs, err := e.EmbedTexts(context.Background(), []string{"Hello, world", "hello world", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Len(t, vecs[0], 64)
	assert.Equal(t, vecs[0], vecs[1])
	assert.InDelta(t, 1.0, norm(vecs[0]), 1e-5)
	assert.Zero(t, norm(vecs[2]))
}

func TestHashEmbedder_SimilarTextsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(512)
	vecs, err := e.EmbedTexts(context.Background(), []string{
		"the quarterly revenue report for the finance team",
		"finance team revenue report",
		"a recipe for sourdough bread",
	})
	require.NoError(t, err)

	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestHashEmbedder_DefaultDimension(t *testing.T) {
	assert.Equal(t, 768, NewHashEmbedder(0).Dimension())
}

func TestHashEmbedder_NameIncludesDimension(t *testing.T) {
	assert.Equal(t, "hash-64", NewHashEmbedder(64).Name())
	assert.NotEqual(t, NewHashEmbedder(64).Name(), NewHashEmbedder(128).Name())
}
