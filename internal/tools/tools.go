// Package tools holds the auxiliary lookups offered next to the resume
// corpus: weather, web search, GitHub repository search and semantic search
// over the personal profile. A tool missing its credentials reports
// ErrUnavailable instead of failing the caller.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/customHttpClient"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

const userAgent = "ResumeRAG/1.0"

var ErrUnavailable = errors.New("tool unavailable")

var logger = logger_i.NewLogger("tools")

type Toolbox struct {
	Weather *Weather
	Web     *WebSearch
	GitHub  *GitHubSearch
	Profile *ProfileSearch
}

// New builds every tool. profile may be nil when no base corpus is loaded.
func New(ctx context.Context, settings config.ToolSettings, profile Searcher) *Toolbox {
	client := customHttpClient.NewClient(config.ToolRequestTimeout)
	return &Toolbox{
		Weather: NewWeather(client),
		Web:     NewWebSearch(client, settings.TavilyAPIKey),
		GitHub:  NewGitHubSearch(ctx, settings.GithubToken),
		Profile: NewProfileSearch(profile),
	}
}

// doJSON sends req and decodes a 2xx JSON body into out.
func doJSON(client *http.Client, req *http.Request, out any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Host, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
