package vectorDB

import (
	"context"
	"sort"
)

// EntryID identifies one inserted vector. IDs grow with insertion order and
// are never reused by an index instance.
type EntryID uint64

type Hit struct {
	ID       EntryID
	Distance float32
}

// VectorIndex is an append-only nearest-neighbour index under L2 distance.
// Query results are ascending by distance, ties broken by insertion order.
type VectorIndex interface {
	Dimension() int
	Insert(ctx context.Context, vector []float32) (EntryID, error)
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)
	Remove(ctx context.Context, ids []EntryID) error
	Len() int
	Reset(ctx context.Context) error
}

// FilteredIndex is implemented by indexes that can restrict the candidate set
// before ranking.
type FilteredIndex interface {
	QueryFiltered(ctx context.Context, vector []float32, k int, accept func(EntryID) bool) ([]Hit, error)
}

// QueryWhere ranks only the entries accepted by the filter. Indexes that do
// not filter natively are asked for every live entry and filtered afterwards,
// which gives the same result.
func QueryWhere(ctx context.Context, index VectorIndex, vector []float32, k int, accept func(EntryID) bool) ([]Hit, error) {
	if f, ok := index.(FilteredIndex); ok {
		return f.QueryFiltered(ctx, vector, k, accept)
	}
	all, err := index.Query(ctx, vector, index.Len())
	if err != nil {
		return nil, err
	}
	out := make([]Hit, 0, min(k, len(all)))
	for _, h := range all {
		if len(out) == k {
			break
		}
		if accept(h.ID) {
			out = append(out, h)
		}
	}
	return out, nil
}

// SortHits orders hits by distance, then by id.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}
