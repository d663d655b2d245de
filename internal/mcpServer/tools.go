package mcpServer

import (
	"context"
	"errors"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ProfileSearchInput struct {
	Query string `json:"query" jsonschema:"what to look up in the resume and personal profile"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return (default 4)"`
}

type ProfileSearchOutput struct {
	Passages []commonModels.SearchHit `json:"passages"`
	Text     string                   `json:"text"`
}

type WeatherInput struct {
	Location string `json:"location" jsonschema:"a city or place name"`
}

type WeatherOutput struct {
	Report *tools.WeatherReport `json:"report,omitempty"`
	Text   string               `json:"text"`
}

type QueryInput struct {
	Query string `json:"query" jsonschema:"the search query"`
}

type WebSearchOutput struct {
	Results []tools.WebResult `json:"results"`
	Text    string            `json:"text"`
}

type GitHubSearchOutput struct {
	Repositories []tools.Repository `json:"repositories"`
	Text         string             `json:"text"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "semantic_search_personal",
		Description: "Search the resume and personal profile for background, skills or experience",
	}, s.handleProfileSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_weather",
		Description: "Current weather and today's forecast for a city",
	}, s.handleWeather)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "web_search",
		Description: "Search the web for current information outside the resume",
	}, s.handleWebSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "github_search",
		Description: "Search GitHub repositories. Add user:NAME to the query to list one person's projects",
	}, s.handleGitHubSearch)
}

// Unavailable tools answer with an explanation rather than a protocol error,
// so the calling model can carry on without them.
func unavailableText(err error) (string, bool) {
	if errors.Is(err, tools.ErrUnavailable) {
		return err.Error(), true
	}
	return "", false
}

func (s *Server) handleProfileSearch(ctx context.Context, _ *mcp.CallToolRequest, input ProfileSearchInput) (*mcp.CallToolResult, ProfileSearchOutput, error) {
	hits, err := s.tools.Profile.Search(ctx, input.Query, input.K)
	if err != nil {
		if text, ok := unavailableText(err); ok {
			return nil, ProfileSearchOutput{Text: text}, nil
		}
		return nil, ProfileSearchOutput{}, err
	}
	return nil, ProfileSearchOutput{Passages: hits, Text: tools.FormatProfileHits(hits)}, nil
}

func (s *Server) handleWeather(ctx context.Context, _ *mcp.CallToolRequest, input WeatherInput) (*mcp.CallToolResult, WeatherOutput, error) {
	report, err := s.tools.Weather.Lookup(ctx, input.Location)
	if err != nil {
		var notFound *tools.LocationNotFoundError
		if errors.As(err, &notFound) {
			return nil, WeatherOutput{Text: notFound.Error()}, nil
		}
		return nil, WeatherOutput{}, err
	}
	return nil, WeatherOutput{Report: &report, Text: report.String()}, nil
}

func (s *Server) handleWebSearch(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, WebSearchOutput, error) {
	results, err := s.tools.Web.Search(ctx, input.Query)
	if err != nil {
		if text, ok := unavailableText(err); ok {
			return nil, WebSearchOutput{Text: text}, nil
		}
		return nil, WebSearchOutput{}, err
	}
	return nil, WebSearchOutput{Results: results, Text: tools.FormatWebResults(results)}, nil
}

func (s *Server) handleGitHubSearch(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, GitHubSearchOutput, error) {
	repos, err := s.tools.GitHub.Search(ctx, input.Query)
	if err != nil {
		return nil, GitHubSearchOutput{}, err
	}
	return nil, GitHubSearchOutput{Repositories: repos, Text: tools.FormatRepositories(repos)}, nil
}
