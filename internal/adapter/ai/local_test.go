package ai

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(128)
	ctx := context.Background()

	first, err := e.Embed(ctx, "queen bed with storage")
	require.NoError(t, err)

	second, err := e.Embed(ctx, "queen bed with storage")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLocalEmbedder_Dimension(t *testing.T) {
	e := NewLocalEmbedder(64)

	vec, err := e.Embed(context.Background(), "sofa")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
	assert.Equal(t, 64, e.Dimension())
}

func TestLocalEmbedder_DefaultDimension(t *testing.T) {
	e := NewLocalEmbedder(0)
	assert.Equal(t, 256, e.Dimension())
}

func TestLocalEmbedder_Normalized(t *testing.T) {
	e := NewLocalEmbedder(128)

	vec, err := e.Embed(context.Background(), "dining table with four chairs")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalEmbedder_EmptyText(t *testing.T) {
	e := NewLocalEmbedder(128)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vec, 128)
}

func TestLocalEmbedder_BatchMatchesSingle(t *testing.T) {
	e := NewLocalEmbedder(128)
	ctx := context.Background()
	texts := []string{"queen bed", "fabric sofa", "dining table"}

	vectors, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i])
	}
}

func TestLocalEmbedder_RelatedTextsMoreSimilar(t *testing.T) {
	e := NewLocalEmbedder(256)
	ctx := context.Background()

	query, err := e.Embed(ctx, "queen bed for sleeping")
	require.NoError(t, err)
	bed, err := e.Embed(ctx, "queen bed with storage compartments")
	require.NoError(t, err)
	table, err := e.Embed(ctx, "dining table with chairs")
	require.NoError(t, err)

	assert.Greater(t, dot(query, bed), dot(query, table))
}

// dot works on normalized vectors, so it equals cosine similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
