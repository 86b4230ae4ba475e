package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic feature-hashing embedder. It needs no
// network or model weights, so the index keeps answering queries when the
// remote embedding backend is unreachable. Word tokens and character
// trigrams are hashed into a fixed number of buckets and the resulting
// vector is L2-normalized, so cosine similarity reduces to a dot product.
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder creates a local embedder with the given vector dimension.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalEmbedder{dimension: dimension}
}

// Name returns the embedder identifier.
func (e *LocalEmbedder) Name() string {
	return "local-hash"
}

// Dimension returns the vector dimension.
func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

// Embed generates a vector embedding for the given text.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)

	for _, token := range tokenize(text) {
		vec[e.bucket(token)]++
		// Character trigrams let related word forms share signal
		// ("bedroom" overlaps "bed").
		for i := 0; i+3 <= len(token); i++ {
			vec[e.bucket(token[i:i+3])] += 0.5
		}
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *LocalEmbedder) bucket(token string) int {
	h := fnv.New64a()
	h.Write([]byte(token))
	return int(h.Sum64() % uint64(e.dimension))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
