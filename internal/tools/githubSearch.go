package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/customHttpClient"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const repoResultLimit = 5

// GitHubSearch searches public repositories. A token only raises the rate
// limit; "user:NAME" in the query narrows to one account.
type GitHubSearch struct {
	gh            *gh.Client
	authenticated bool
}

func NewGitHubSearch(ctx context.Context, token string) *GitHubSearch {
	if token == "" {
		return NewGitHubSearchWithClient(customHttpClient.NewClient(config.ToolRequestTimeout), false)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = config.ToolRequestTimeout
	return NewGitHubSearchWithClient(tc, true)
}

func NewGitHubSearchWithClient(httpClient *http.Client, authenticated bool) *GitHubSearch {
	return &GitHubSearch{gh: gh.NewClient(httpClient), authenticated: authenticated}
}

type Repository struct {
	FullName    string `json:"full_name"`
	Owner       string `json:"owner"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	URL         string `json:"url"`
}

func (s *GitHubSearch) Search(ctx context.Context, query string) ([]Repository, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	result, _, err := s.gh.Search.Repositories(ctx, query, &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: repoResultLimit},
	})
	if err != nil {
		if !s.authenticated {
			return nil, fmt.Errorf("github search (set GITHUB_TOKEN for higher rate limits): %w", err)
		}
		return nil, fmt.Errorf("github search: %w", err)
	}

	repos := make([]Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		if len(repos) == repoResultLimit {
			break
		}
		description := r.GetDescription()
		if description == "" {
			description = "No description"
		}
		repos = append(repos, Repository{
			FullName:    r.GetFullName(),
			Owner:       r.GetOwner().GetLogin(),
			Description: description,
			Stars:       r.GetStargazersCount(),
			URL:         r.GetHTMLURL(),
		})
	}
	return repos, nil
}

func FormatRepositories(repos []Repository) string {
	if len(repos) == 0 {
		return "No GitHub repositories found for that query."
	}
	parts := make([]string, 0, len(repos))
	for _, r := range repos {
		parts = append(parts, fmt.Sprintf("%s (owner: %s) (%d stars)\n%s\n%s", r.FullName, r.Owner, r.Stars, r.Description, r.URL))
	}
	return strings.Join(parts, "\n\n")
}
