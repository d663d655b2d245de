package providers

import (
	"context"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/internal/rag/llm/claude"
	"github.com/akolanti/ResumeRAG/internal/rag/llm/gemini"
	"github.com/akolanti/ResumeRAG/internal/rag/llm/openaiLLM"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

var logger = logger_i.NewLogger("providers")

var embeddingDefaults = map[string]string{
	"google": config.GoogleEmbeddingModel,
	"openai": config.OpenAIEmbeddingModel,
	"local":  config.LocalEmbeddingModel,
}

var llmDefaults = map[string]string{
	"gemini": config.GeminiModelName,
	"openai": config.OpenAIModelName,
	"claude": config.ClaudeModelName,
}

// modelFor keeps an explicit model name unless it is another provider's
// default, which happens when only the provider was overridden.
func modelFor(defaults map[string]string, provider, configured string) string {
	if configured == "" {
		return defaults[provider]
	}
	for p, m := range defaults {
		if p != provider && m == configured {
			return defaults[provider]
		}
	}
	return configured
}

// NewEmbedder never returns nil: a provider that cannot be built falls back
// to the local hashing embedder with the same dimension, so retrieval keeps
// working without credentials.
func NewEmbedder(ctx context.Context, s config.EmbeddingSettings) embedding.Embedder {
	provider := strings.ToLower(s.Provider)
	model := modelFor(embeddingDefaults, provider, s.Model)

	var e embedding.Embedder
	switch provider {
	case "google":
		e = googleEmbedding.GetGoogleEmbeddingClient(ctx, model, s.APIKey, s.Dimension)
	case "openai":
		e = openaiEmbedding.NewOpenAIEmbedder(model, s.APIKey, s.Dimension)
	case "local":
	default:
		logger.Warn("unknown embedding provider", "provider", s.Provider)
	}
	if e == nil {
		if provider != "local" {
			logger.Warn("falling back to local hashing embeddings", "provider", s.Provider)
		}
		return hashEmbedding.New(s.Dimension)
	}
	return e
}

// NewLLM returns nil when generation is disabled or unavailable. Callers
// treat a nil provider as "no generation collaborator".
func NewLLM(ctx context.Context, s config.LLMSettings) llm.Provider {
	provider := strings.ToLower(s.Provider)
	model := modelFor(llmDefaults, provider, s.Model)

	switch provider {
	case "gemini":
		return gemini.GetGeminiClient(ctx, s.APIKey, model)
	case "openai":
		return openaiLLM.NewOpenAIClient(s.APIKey, model)
	case "claude":
		return claude.NewClaudeClient(s.APIKey, model)
	case "none", "":
		logger.Info("generation disabled")
		return nil
	default:
		logger.Warn("unknown llm provider", "provider", s.Provider)
		return nil
	}
}
