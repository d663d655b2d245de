package mcpServer

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCorpus struct {
	hits []commonModels.SearchHit
}

func (f *fakeCorpus) Len() int { return len(f.hits) }

func (f *fakeCorpus) Search(ctx context.Context, query string, scope commonModels.ScopeDecision, k int) (commonModels.SearchResult, error) {
	return commonModels.SearchResult{Scope: scope, Hits: f.hits}, nil
}

func newTestServer(t *testing.T, corpus tools.Searcher) *Server {
	t.Helper()
	toolbox := &tools.Toolbox{
		Weather: tools.NewWeather(http.DefaultClient),
		Web:     tools.NewWebSearch(http.DefaultClient, ""),
		GitHub:  tools.NewGitHubSearchWithClient(http.DefaultClient, false),
		Profile: tools.NewProfileSearch(corpus),
	}
	s, err := NewServer(toolbox)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresToolbox(t *testing.T) {
	_, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingToolbox)
}

func TestHandleProfileSearch(t *testing.T) {
	s := newTestServer(t, &fakeCorpus{hits: []commonModels.SearchHit{{Text: "Platform engineer"}, {Text: "Climbs on weekends"}}})

	_, out, err := s.handleProfileSearch(context.Background(), nil, ProfileSearchInput{Query: "hobbies"})
	require.NoError(t, err)
	assert.Len(t, out.Passages, 2)
	assert.Equal(t, "Platform engineer\n\n---\n\nClimbs on weekends", out.Text)

	empty := newTestServer(t, &fakeCorpus{})
	_, out, err = empty.handleProfileSearch(context.Background(), nil, ProfileSearchInput{Query: "hobbies"})
	require.NoError(t, err, "a missing profile is reported as text")
	assert.Contains(t, out.Text, "no base profile loaded")
}

func TestHandleWebSearch_WithoutKey(t *testing.T) {
	s := newTestServer(t, &fakeCorpus{})
	_, out, err := s.handleWebSearch(context.Background(), nil, QueryInput{Query: "news"})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "TAVILY_API_KEY")
	assert.Empty(t, out.Results)
}

func TestHandleWeather_BlankLocation(t *testing.T) {
	s := newTestServer(t, &fakeCorpus{})
	_, out, err := s.handleWeather(context.Background(), nil, WeatherInput{Location: " "})
	require.NoError(t, err)
	assert.Nil(t, out.Report)
	assert.Contains(t, out.Text, "could not find location")
}

func TestServer_ListsTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, &fakeCorpus{})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer clientSession.Close()

	listed, err := clientSession.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(listed.Tools))
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"get_weather", "github_search", "semantic_search_personal", "web_search"}, names)

	result, err := clientSession.CallTool(ctx, &mcp.CallToolParams{
		Name:      "web_search",
		Arguments: map[string]any{"query": "news"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
