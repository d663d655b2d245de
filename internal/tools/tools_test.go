package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeather_Lookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		if r.URL.Query().Get("name") == "Atlantis" {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"name":"Lisbon","latitude":38.72,"longitude":-9.14,"timezone":"Europe/Lisbon"}]}`)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "38.72", r.URL.Query().Get("latitude"))
		assert.Equal(t, "Europe/Lisbon", r.URL.Query().Get("timezone"))
		fmt.Fprint(w, `{"current":{"temperature_2m":21.5,"weather_code":2},
			"daily":{"temperature_2m_max":[24],"temperature_2m_min":[15.5],"precipitation_sum":[0.4]}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	w := NewWeather(srv.Client())
	w.geocodeURL, w.forecastURL = srv.URL+"/geocode", srv.URL+"/forecast"

	report, err := w.Lookup(context.Background(), " Lisbon ")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", report.Location)
	assert.Equal(t, "mainly clear to partly cloudy", report.Condition)
	require.NotNil(t, report.HighC)
	assert.Equal(t, 24.0, *report.HighC)
	assert.Equal(t, "Weather in Lisbon: 21.5°C (mainly clear to partly cloudy). Today: high 24.0°C, low 15.5°C. Precipitation: 0.4 mm.", report.String())

	_, err = w.Lookup(context.Background(), "Atlantis")
	var notFound *LocationNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = w.Lookup(context.Background(), "  ")
	assert.ErrorAs(t, err, &notFound)
}

func TestWeather_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	w := NewWeather(srv.Client())
	w.geocodeURL = srv.URL

	_, err := w.Lookup(context.Background(), "Lisbon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestDescribeWeatherCode(t *testing.T) {
	assert.Equal(t, "clear", DescribeWeatherCode(0))
	assert.Equal(t, "foggy", DescribeWeatherCode(48))
	assert.Equal(t, "snowy", DescribeWeatherCode(75))
	assert.Equal(t, "thunderstorms", DescribeWeatherCode(95))
	assert.Equal(t, "variable", DescribeWeatherCode(42))
}

func TestWebSearch(t *testing.T) {
	long := strings.Repeat("x", 800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		var body tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "go generics", body.Query)
		assert.Equal(t, webResultLimit, body.MaxResults)

		results := make([]WebResult, 7)
		for i := range results {
			results[i] = WebResult{Title: fmt.Sprintf("r%d", i), URL: "https://example.com", Content: long}
		}
		_ = json.NewEncoder(w).Encode(tavilyResponse{Results: results})
	}))
	defer srv.Close()

	s := NewWebSearch(srv.Client(), "tvly-test")
	s.endpoint = srv.URL
	results, err := s.Search(context.Background(), " go generics ")
	require.NoError(t, err)
	require.Len(t, results, webResultLimit)
	assert.Len(t, results[0].Content, webContentMaxLen)
	assert.True(t, strings.HasPrefix(FormatWebResults(results), "[r0](https://example.com)\n"))

	_, err = NewWebSearch(srv.Client(), "").Search(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "No results found.", FormatWebResults(nil))
}

func TestGitHubSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "user:roxy rag", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `{"total_count":2,"items":[
			{"full_name":"roxy/resume-rag","owner":{"login":"roxy"},"description":"RAG over resumes","stargazers_count":42,"html_url":"https://github.com/roxy/resume-rag"},
			{"full_name":"roxy/dotfiles","owner":{"login":"roxy"},"stargazers_count":1,"html_url":"https://github.com/roxy/dotfiles"}]}`)
	}))
	defer srv.Close()

	s := NewGitHubSearchWithClient(srv.Client(), false)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.gh.BaseURL = base

	repos, err := s.Search(context.Background(), "user:roxy rag")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, Repository{FullName: "roxy/resume-rag", Owner: "roxy", Description: "RAG over resumes", Stars: 42, URL: "https://github.com/roxy/resume-rag"}, repos[0])
	assert.Equal(t, "No description", repos[1].Description)
	assert.Contains(t, FormatRepositories(repos), "roxy/resume-rag (owner: roxy) (42 stars)")

	empty, err := s.Search(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGitHubSearch_RateLimitHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"Validation Failed"}`)
	}))
	defer srv.Close()
	s := NewGitHubSearchWithClient(srv.Client(), false)
	base, _ := url.Parse(srv.URL + "/")
	s.gh.BaseURL = base

	_, err := s.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

type fakeSearcher struct {
	docs    int
	lastK   int
	onQuery func(query string) (commonModels.SearchResult, error)
}

func (f *fakeSearcher) Len() int { return f.docs }

func (f *fakeSearcher) Search(ctx context.Context, query string, scope commonModels.ScopeDecision, k int) (commonModels.SearchResult, error) {
	f.lastK = k
	if f.onQuery != nil {
		return f.onQuery(query)
	}
	return commonModels.SearchResult{Scope: scope}, nil
}

func TestProfileSearch(t *testing.T) {
	corpus := &fakeSearcher{docs: 2, onQuery: func(query string) (commonModels.SearchResult, error) {
		return commonModels.SearchResult{Hits: []commonModels.SearchHit{{Text: "climbing"}, {Text: "sea"}}}, nil
	}}
	p := NewProfileSearch(corpus)

	hits, err := p.Search(context.Background(), "hobbies", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, 4, corpus.lastK)
	assert.Equal(t, "climbing\n\n---\n\nsea", FormatProfileHits(hits))

	_, err = p.Search(context.Background(), "hobbies", 50)
	require.NoError(t, err)
	assert.Equal(t, 8, corpus.lastK)

	corpus.onQuery = func(string) (commonModels.SearchResult, error) {
		return commonModels.SearchResult{}, errors.New("embedding down")
	}
	_, err = p.Search(context.Background(), "hobbies", 2)
	assert.Error(t, err)

	_, err = NewProfileSearch(&fakeSearcher{}).Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NewProfileSearch(nil).Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
