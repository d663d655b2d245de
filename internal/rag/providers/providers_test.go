package providers

import (
	"context"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/config"
)

func TestModelFor(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		configured string
		want       string
	}{
		{"empty uses default", "openai", "", config.OpenAIEmbeddingModel},
		{"other default replaced", "openai", config.GoogleEmbeddingModel, config.OpenAIEmbeddingModel},
		{"explicit kept", "openai", "text-embedding-3-large", "text-embedding-3-large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modelFor(embeddingDefaults, tt.provider, tt.configured); got != tt.want {
				t.Errorf("modelFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEmbedder_FallsBackWithoutKey(t *testing.T) {
	e := NewEmbedder(context.Background(), config.EmbeddingSettings{Provider: "openai", Dimension: 64})
	if e == nil {
		t.Fatal("expected fallback embedder")
	}
	if e.Dimension() != 64 {
		t.Errorf("dimension = %d, want 64", e.Dimension())
	}
	if e.ModelName() != config.LocalEmbeddingModel {
		t.Errorf("model = %s, want local", e.ModelName())
	}
}

func TestNewLLM_Disabled(t *testing.T) {
	if p := NewLLM(context.Background(), config.LLMSettings{Provider: "none"}); p != nil {
		t.Errorf("expected nil provider, got %T", p)
	}
	if p := NewLLM(context.Background(), config.LLMSettings{Provider: "claude"}); p != nil {
		t.Errorf("expected nil provider without key, got %T", p)
	}
}
