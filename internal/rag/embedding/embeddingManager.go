package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

// Embedder maps text to fixed-size vectors. The same input always yields
// the same vector for the lifetime of an Embedder.
type Embedder interface {
	// GetEmbedding embeds a search query.
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	// BatchEmbedding embeds document chunks, one vector per input, in order.
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// EmbedAll embeds texts in batches of batchSize and checks every vector
// against the embedder's dimension.
func EmbedAll(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		vectors, err := e.BatchEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, commonModels.Upstream("embedding", err)
		}
		if len(vectors) != end-start {
			return nil, commonModels.Upstream("embedding", fmt.Errorf("asked for %d vectors, got %d", end-start, len(vectors)))
		}
		out = append(out, vectors...)
	}
	for _, v := range out {
		if err := CheckDimension(e, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func CheckDimension(e Embedder, v []float32) error {
	if len(v) != e.Dimension() {
		return &commonModels.DimensionError{Expected: e.Dimension(), Got: len(v)}
	}
	return nil
}
