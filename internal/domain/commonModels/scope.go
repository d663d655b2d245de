package commonModels

type ScopeKind string

const (
	ScopeSingleDocument ScopeKind = "SingleDocument"
	ScopeCrossDocument  ScopeKind = "CrossDocument"
	ScopeAmbiguous      ScopeKind = "Ambiguous"
)

// ScopeDecision says which part of the corpus a question is about.
// DocumentId is only set for ScopeSingleDocument.
type ScopeDecision struct {
	Kind        ScopeKind `json:"kind"`
	DocumentId  string    `json:"document_id,omitempty"`
	Comparative bool      `json:"comparative"`
	Reason      string    `json:"reason,omitempty"`
}

func SingleDocument(id string) ScopeDecision {
	return ScopeDecision{Kind: ScopeSingleDocument, DocumentId: id}
}

func CrossDocument() ScopeDecision {
	return ScopeDecision{Kind: ScopeCrossDocument}
}

func Ambiguous() ScopeDecision {
	return ScopeDecision{Kind: ScopeAmbiguous}
}

type SearchHit struct {
	DocumentId  string  `json:"document_id"`
	DisplayName string  `json:"display_name"`
	ChunkIndex  int     `json:"chunk_index"`
	Text        string  `json:"text"`
	Distance    float32 `json:"distance"`
}

// DocumentGroup collects the hits of one document, best first.
type DocumentGroup struct {
	DocumentId   string      `json:"document_id"`
	DisplayName  string      `json:"display_name"`
	BestDistance float32     `json:"best_distance"`
	Hits         []SearchHit `json:"hits"`
}

type SearchResult struct {
	Scope  ScopeDecision   `json:"scope"`
	Hits   []SearchHit     `json:"hits"`
	Groups []DocumentGroup `json:"groups,omitempty"`
}

func (r SearchResult) IsEmpty() bool { return len(r.Hits) == 0 }

// Sources lists the distinct display names in rank order.
func (r SearchResult) Sources() []string {
	seen := make(map[string]struct{}, len(r.Hits))
	var out []string
	for _, h := range r.Hits {
		if _, ok := seen[h.DocumentId]; ok {
			continue
		}
		seen[h.DocumentId] = struct{}{}
		out = append(out, h.DisplayName)
	}
	return out
}
