package llm

import (
	"context"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

// Request is one generation call. History is replayed oldest first as
// alternating user and assistant messages before Prompt.
type Request struct {
	System      string
	History     []commonModels.ConversationTurn
	Prompt      string
	Temperature float64
}

type Provider interface {
	Generate(ctx context.Context, request Request) (string, error)
	ModelName() string
}
