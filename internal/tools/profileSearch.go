package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

// Searcher is the part of the retrieval manager the profile tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, scope commonModels.ScopeDecision, k int) (commonModels.SearchResult, error)
	Len() int
}

// ProfileSearch runs semantic search over the pinned base corpus only.
type ProfileSearch struct {
	corpus Searcher
}

func NewProfileSearch(corpus Searcher) *ProfileSearch {
	return &ProfileSearch{corpus: corpus}
}

// Search returns the best matching chunk texts, best first. k is clamped to
// [1, config.DefaultSingleDocK*2].
func (p *ProfileSearch) Search(ctx context.Context, query string, k int) ([]commonModels.SearchHit, error) {
	if p.corpus == nil || p.corpus.Len() == 0 {
		return nil, fmt.Errorf("no base profile loaded: %w", ErrUnavailable)
	}
	if k <= 0 {
		k = config.DefaultSingleDocK
	}
	if k > 2*config.DefaultSingleDocK {
		k = 2 * config.DefaultSingleDocK
	}
	result, err := p.corpus.Search(ctx, query, commonModels.CrossDocument(), k)
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
}

func FormatProfileHits(hits []commonModels.SearchHit) string {
	if len(hits) == 0 {
		return "Nothing in the profile matches that."
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
