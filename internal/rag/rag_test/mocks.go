package rag_test

import (
	"context"
	"strings"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/rag/llm"
)

// MockLLM implements llm.Provider. Each request kind has its own hook; an
// unset hook returns a canned response.
type MockLLM struct {
	OnAnswer   func(ctx context.Context, request llm.Request) (string, error)
	OnMetadata func(ctx context.Context, request llm.Request) (string, error)
	OnValidity func(ctx context.Context, request llm.Request) (string, error)
	OnSummary  func(ctx context.Context, request llm.Request) (string, error)

	mu       sync.Mutex
	requests []llm.Request
}

func (m *MockLLM) ModelName() string { return "mock-llm" }

func (m *MockLLM) Generate(ctx context.Context, request llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, request)
	m.mu.Unlock()

	switch request.System {
	case llm.MetadataSystem:
		if m.OnMetadata != nil {
			return m.OnMetadata(ctx, request)
		}
		return "CANDIDATE_NAME: Not provided", nil
	case llm.ValiditySystem:
		if m.OnValidity != nil {
			return m.OnValidity(ctx, request)
		}
		return "YES", nil
	case llm.SummarySystem:
		if m.OnSummary != nil {
			return m.OnSummary(ctx, request)
		}
		return "mocked summary", nil
	default:
		if m.OnAnswer != nil {
			return m.OnAnswer(ctx, request)
		}
		return "mocked llm response", nil
	}
}

// Requests returns the calls made with the given system prompt.
func (m *MockLLM) Requests(system string) []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []llm.Request
	for _, r := range m.requests {
		if r.System == system {
			out = append(out, r)
		}
	}
	return out
}

// metadataByName answers metadata requests for whichever of the given
// people the prompt mentions.
func metadataByName(people map[string]string) func(context.Context, llm.Request) (string, error) {
	return func(_ context.Context, r llm.Request) (string, error) {
		for name, skills := range people {
			if strings.Contains(r.Prompt, name) {
				return "CANDIDATE_NAME: " + name + "\nKEY_SKILLS: " + skills + "\nEXPERIENCE_YEARS: 6", nil
			}
		}
		return "CANDIDATE_NAME: Unknown", nil
	}
}
