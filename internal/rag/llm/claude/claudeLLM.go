package claude

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type client struct {
	api       anthropic.Client
	modelName string
	maxTokens int64
	logger    *logger_i.Logger
}

// NewClaudeClient returns nil when no API key is configured.
func NewClaudeClient(apiKey, modelName string) llm.Provider {
	logger := logger_i.NewLogger("llm_claude")
	if apiKey == "" {
		logger.Warn("no Anthropic API key, Claude generation disabled")
		return nil
	}
	if modelName == "" {
		modelName = config.ClaudeModelName
	}
	logger.Info("Claude client created", "model", modelName)
	return &client{
		api:       anthropic.NewClient(option.WithAPIKey(apiKey), option.WithRequestTimeout(config.LLMConnectionTimeout)),
		modelName: modelName,
		maxTokens: config.ClaudeMaxTokens,
		logger:    logger,
	}
}

func (c *client) ModelName() string { return c.modelName }

func (c *client) Generate(ctx context.Context, request llm.Request) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	messages := make([]anthropic.MessageParam, 0, 2*len(request.History)+1)
	for _, turn := range request.History {
		messages = append(messages,
			anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Question)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Answer)),
		)
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelName),
		MaxTokens:   c.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(request.Temperature),
	}
	if request.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: request.System}}
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		log.Error("Claude message failed", "error", err)
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("claude returned no text")
	}
	return text.String(), nil
}
