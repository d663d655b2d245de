package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

// GetGeminiClient returns nil when the client cannot be created.
func GetGeminiClient(ctx context.Context, apikey string, modelName string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, apikey, modelName)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, apikey string, modelName string) {
	if apikey == "" {
		logger.Warn("no Google API key, Gemini generation disabled")
		return
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
}

func (c *llmClient) ModelName() string { return c.modelName }

func (c *llmClient) Generate(ctx context.Context, request llm.Request) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "model", c.modelName)

	contents := make([]*genai.Content, 0, 2*len(request.History)+1)
	for _, turn := range request.History {
		contents = append(contents,
			&genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(turn.Question)}},
			&genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{genai.NewPartFromText(turn.Answer)}},
		)
	}
	contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText(request.Prompt)}})

	temperature := float32(request.Temperature)
	contentConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if request.System != "" {
		contentConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: request.System}}}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
