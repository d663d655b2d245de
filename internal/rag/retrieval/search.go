package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
)

// DefaultK is the k used for a scope when the caller passes k <= 0.
func (m *Manager) DefaultK(scope commonModels.ScopeDecision) int {
	if scope.Kind == commonModels.ScopeSingleDocument {
		return m.opts.SingleDocK
	}
	return m.opts.CrossDocK
}

// Search ranks chunks by L2 distance to the query. A single-document scope
// restricts the candidates before k is applied. Other scopes rank the valid
// documents and keep at most ChunksPerDocument chunks of any one document,
// so one close match cannot crowd the others out of the top k.
func (m *Manager) Search(ctx context.Context, query string, scope commonModels.ScopeDecision, k int) (commonModels.SearchResult, error) {
	result := commonModels.SearchResult{Scope: scope}
	if k <= 0 {
		k = m.DefaultK(scope)
	}

	m.mu.RLock()
	empty := len(m.order) == 0
	_, known := m.documents[scope.DocumentId]
	m.mu.RUnlock()
	if empty {
		return result, nil
	}
	if scope.Kind == commonModels.ScopeSingleDocument && !known {
		return result, fmt.Errorf("document %s: %w", scope.DocumentId, commonModels.ErrNotFound)
	}

	start := time.Now()
	vector, err := m.embedder.GetEmbedding(ctx, query)
	metrics.CaptureExecutionMetrics("query_embedding", time.Since(start))
	if err != nil {
		return result, commonModels.Upstream("embedding", err)
	}
	if err = embedding.CheckDimension(m.embedder, vector); err != nil {
		return result, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if scope.Kind == commonModels.ScopeSingleDocument {
		// the document may have been evicted while the query was embedded
		if _, ok := m.documents[scope.DocumentId]; !ok {
			return result, fmt.Errorf("document %s: %w", scope.DocumentId, commonModels.ErrNotFound)
		}
		hits, err := vectorDB.QueryWhere(ctx, m.index, vector, k, func(id vectorDB.EntryID) bool {
			return m.owners[id].documentId == scope.DocumentId
		})
		if err != nil {
			return result, err
		}
		result.Hits = m.toSearchHitsLocked(hits)
		result.Groups = groupHits(result.Hits)
		return result, nil
	}

	ranked, err := vectorDB.QueryWhere(ctx, m.index, vector, m.index.Len(), func(id vectorDB.EntryID) bool {
		ref, ok := m.owners[id]
		return ok && m.documents[ref.documentId].Validity.Valid
	})
	if err != nil {
		return result, err
	}
	result.Hits = m.toSearchHitsLocked(capPerDocument(ranked, m.ownerOfLocked, k, m.opts.ChunksPerDocument))
	result.Groups = groupHits(result.Hits)
	return result, nil
}

func (m *Manager) ownerOfLocked(id vectorDB.EntryID) string {
	return m.owners[id].documentId
}

// capPerDocument walks the ranking and keeps a hit unless its document
// already has perDocument hits, stopping at k hits.
func capPerDocument(ranked []vectorDB.Hit, owner func(vectorDB.EntryID) string, k, perDocument int) []vectorDB.Hit {
	taken := map[string]int{}
	out := make([]vectorDB.Hit, 0, min(k, len(ranked)))
	for _, h := range ranked {
		if len(out) == k {
			break
		}
		doc := owner(h.ID)
		if perDocument > 0 && taken[doc] >= perDocument {
			continue
		}
		taken[doc]++
		out = append(out, h)
	}
	return out
}

func (m *Manager) toSearchHitsLocked(hits []vectorDB.Hit) []commonModels.SearchHit {
	out := make([]commonModels.SearchHit, 0, len(hits))
	for _, h := range hits {
		ref, ok := m.owners[h.ID]
		if !ok {
			continue
		}
		d := m.documents[ref.documentId]
		out = append(out, commonModels.SearchHit{
			DocumentId:  d.Id,
			DisplayName: d.DisplayName,
			ChunkIndex:  ref.chunkIndex,
			Text:        d.Chunks[ref.chunkIndex].Text,
			Distance:    h.Distance,
		})
	}
	return out
}

// groupHits groups ranked hits by document, ordering groups by their best hit.
func groupHits(hits []commonModels.SearchHit) []commonModels.DocumentGroup {
	index := map[string]int{}
	var groups []commonModels.DocumentGroup
	for _, h := range hits {
		i, ok := index[h.DocumentId]
		if !ok {
			i = len(groups)
			index[h.DocumentId] = i
			groups = append(groups, commonModels.DocumentGroup{
				DocumentId:   h.DocumentId,
				DisplayName:  h.DisplayName,
				BestDistance: h.Distance,
			})
		}
		groups[i].Hits = append(groups[i].Hits, h)
	}
	return groups
}
