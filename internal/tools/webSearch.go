package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	tavilyURL        = "https://api.tavily.com/search"
	webResultLimit   = 5
	webContentMaxLen = 500
)

// WebSearch queries Tavily. Without an API key every search reports
// ErrUnavailable.
type WebSearch struct {
	client   *http.Client
	apiKey   string
	endpoint string
}

func NewWebSearch(client *http.Client, apiKey string) *WebSearch {
	return &WebSearch{client: client, apiKey: apiKey, endpoint: tavilyURL}
}

func (s *WebSearch) Available() bool { return s.apiKey != "" }

type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []WebResult `json:"results"`
}

func (s *WebSearch) Search(ctx context.Context, query string) ([]WebResult, error) {
	if !s.Available() {
		return nil, fmt.Errorf("web search needs TAVILY_API_KEY: %w", ErrUnavailable)
	}
	body, err := json.Marshal(tavilyRequest{Query: strings.TrimSpace(query), MaxResults: webResultLimit, SearchDepth: "basic"})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	var out tavilyResponse
	if err = doJSON(s.client, req, &out); err != nil {
		logger.Warn("web search failed", "error", err)
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	if len(out.Results) > webResultLimit {
		out.Results = out.Results[:webResultLimit]
	}
	for i := range out.Results {
		out.Results[i].Content = truncate(out.Results[i].Content, webContentMaxLen)
	}
	return out.Results, nil
}

func FormatWebResults(results []WebResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[%s](%s)\n%s", r.Title, r.URL, r.Content))
	}
	return strings.Join(parts, "\n\n")
}
