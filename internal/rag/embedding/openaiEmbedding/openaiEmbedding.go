package openaiEmbedding

import (
	"context"
	"errors"
	"sort"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	model     string
	dimension int
	logger    *logger_i.Logger
}

// NewOpenAIEmbedder returns nil when no API key is configured.
func NewOpenAIEmbedder(modelName, apiKey string, dimension int) embedding.Embedder {
	logger := logger_i.NewLogger("openai_embedding")
	if apiKey == "" {
		logger.Warn("no OpenAI API key, OpenAI embeddings disabled")
		return nil
	}
	if modelName == "" {
		modelName = config.OpenAIEmbeddingModel
	}
	logger.Info("OpenAI embedding client created", "model", modelName, "dimension", dimension)
	return &client{
		api:       openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(2)),
		model:     modelName,
		dimension: dimension,
		logger:    logger,
	}
}

func (c *client) Dimension() int { return c.dimension }

func (c *client) ModelName() string { return c.model }

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chunks", len(chunks))
	if len(chunks) == 0 {
		return nil, nil
	}
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dimension)),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, errors.New("openai returned a different number of embeddings")
	}
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		v := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float32(f)
		}
		out[i] = v
	}
	return out, nil
}
