package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api       openai.Client
	modelName string
	logger    *logger_i.Logger
}

// NewOpenAIClient returns nil when no API key is configured.
func NewOpenAIClient(apiKey, modelName string) llm.Provider {
	logger := logger_i.NewLogger("llm_openai")
	if apiKey == "" {
		logger.Warn("no OpenAI API key, OpenAI generation disabled")
		return nil
	}
	if modelName == "" {
		modelName = config.OpenAIModelName
	}
	logger.Info("OpenAI client created", "model", modelName)
	return &client{
		api:       openai.NewClient(option.WithAPIKey(apiKey), option.WithRequestTimeout(config.LLMConnectionTimeout)),
		modelName: modelName,
		logger:    logger,
	}
}

func (c *client) ModelName() string { return c.modelName }

func (c *client) Generate(ctx context.Context, request llm.Request) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(request.History)+2)
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}
	for _, turn := range request.History {
		messages = append(messages, openai.UserMessage(turn.Question), openai.AssistantMessage(turn.Answer))
	}
	messages = append(messages, openai.UserMessage(request.Prompt))

	chat, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.modelName),
		Messages:    messages,
		Temperature: openai.Float(request.Temperature),
	})
	if err != nil {
		log.Error("OpenAI completion failed", "error", err)
		return "", err
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned an empty response")
	}
	return chat.Choices[0].Message.Content, nil
}
