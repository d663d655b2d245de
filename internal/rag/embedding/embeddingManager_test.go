package embedding_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/hashEmbedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	dim     int
	batches [][]string
	onBatch func(chunks []string) ([][]float32, error)
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return make([]float32, s.dim), nil
}

func (s *stubEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	s.batches = append(s.batches, chunks)
	if s.onBatch != nil {
		return s.onBatch(chunks)
	}
	out := make([][]float32, len(chunks))
	for i := range out {
		out[i] = make([]float32, s.dim)
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return s.dim }
func (s *stubEmbedder) ModelName() string { return "stub" }

func TestEmbedAll_Batches(t *testing.T) {
	stub := &stubEmbedder{dim: 4}
	vectors, err := embedding.EmbedAll(context.Background(), stub, []string{"a", "b", "c", "d", "e"}, 2)
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Len(t, stub.batches, 3)
	assert.Equal(t, []string{"e"}, stub.batches[2])
}

func TestEmbedAll_Failures(t *testing.T) {
	failing := &stubEmbedder{dim: 4, onBatch: func([]string) ([][]float32, error) {
		return nil, errors.New("quota")
	}}
	_, err := embedding.EmbedAll(context.Background(), failing, []string{"a"}, 0)
	assert.ErrorIs(t, err, commonModels.ErrUpstreamUnavailable)
	assert.True(t, commonModels.IsRetryable(err))

	short := &stubEmbedder{dim: 4, onBatch: func([]string) ([][]float32, error) {
		return [][]float32{{0, 0, 0, 0}}, nil
	}}
	_, err = embedding.EmbedAll(context.Background(), short, []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, commonModels.ErrUpstreamUnavailable)

	wrongSize := &stubEmbedder{dim: 4, onBatch: func(chunks []string) ([][]float32, error) {
		return [][]float32{{0, 0}}, nil
	}}
	_, err = embedding.EmbedAll(context.Background(), wrongSize, []string{"a"}, 0)
	assert.ErrorIs(t, err, commonModels.ErrDimensionMismatch)
	assert.False(t, commonModels.IsRetryable(err))
}

func TestHashEmbedder(t *testing.T) {
	e := hashEmbedding.New(64)
	ctx := context.Background()

	a, err := e.GetEmbedding(ctx, "Senior Go engineer with AWS")
	require.NoError(t, err)
	require.Len(t, a, 64)

	again, err := e.GetEmbedding(ctx, "senior go engineer with aws")
	require.NoError(t, err)
	assert.Equal(t, a, again, "embedding must be deterministic and case-insensitive")

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := e.GetEmbedding(ctx, "the and of")
	require.NoError(t, err)
	assert.Len(t, empty, 64)
	for _, v := range empty {
		assert.Zero(t, v)
	}

	assert.Equal(t, []string{"c++", "c#", "node.js"}, e.Tokenize("The C++, C# and Node.js"))

	batch, err := e.BatchEmbedding(ctx, []string{"Senior Go engineer with AWS", "Java"})
	require.NoError(t, err)
	assert.Equal(t, a, batch[0])
}
