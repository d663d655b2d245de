package flatIndex

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

// Index is an exact, in-memory L2 index. Removed entries are tombstoned and
// the storage is compacted once the tombstone ratio passes the threshold.
type Index struct {
	mu         sync.RWMutex
	dim        int
	ratio      float64
	vectors    []float32 // row-major, dim floats per slot
	ids        []vectorDB.EntryID
	dead       []bool
	slot       map[vectorDB.EntryID]int
	tombstones int
	nextID     vectorDB.EntryID
	logger     *logger_i.Logger
}

func New(dimension int, compactionRatio float64) *Index {
	return &Index{
		dim:    dimension,
		ratio:  compactionRatio,
		slot:   make(map[vectorDB.EntryID]int),
		nextID: 1,
		logger: logger_i.NewLogger("flat_index"),
	}
}

func (x *Index) Dimension() int { return x.dim }

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids) - x.tombstones
}

func (x *Index) Tombstones() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tombstones
}

func (x *Index) Insert(_ context.Context, vector []float32) (vectorDB.EntryID, error) {
	if len(vector) != x.dim {
		return 0, &commonModels.DimensionError{Expected: x.dim, Got: len(vector)}
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	id := x.nextID
	x.nextID++
	x.slot[id] = len(x.ids)
	x.ids = append(x.ids, id)
	x.dead = append(x.dead, false)
	x.vectors = append(x.vectors, vector...)
	return id, nil
}

func (x *Index) Query(ctx context.Context, vector []float32, k int) ([]vectorDB.Hit, error) {
	return x.QueryFiltered(ctx, vector, k, nil)
}

func (x *Index) QueryFiltered(ctx context.Context, vector []float32, k int, accept func(vectorDB.EntryID) bool) ([]vectorDB.Hit, error) {
	if len(vector) != x.dim {
		return nil, &commonModels.DimensionError{Expected: x.dim, Got: len(vector)}
	}
	if k <= 0 {
		return nil, nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	hits := make([]vectorDB.Hit, 0, len(x.ids)-x.tombstones)
	for i, id := range x.ids {
		if x.dead[i] || (accept != nil && !accept(id)) {
			continue
		}
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		hits = append(hits, vectorDB.Hit{ID: id, Distance: squaredL2(vector, x.vectors[i*x.dim:(i+1)*x.dim])})
	}
	// squared distance preserves order; slots are in id order so ties stay stable
	vectorDB.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Distance = sqrt32(hits[i].Distance)
	}
	return hits, nil
}

// Remove tombstones the given entries. Unknown or already removed ids are an
// error and nothing is removed.
func (x *Index) Remove(_ context.Context, ids []vectorDB.EntryID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, id := range ids {
		s, ok := x.slot[id]
		if !ok || x.dead[s] {
			return fmt.Errorf("entry %d: %w", id, commonModels.ErrNotFound)
		}
	}
	for _, id := range ids {
		s, ok := x.slot[id]
		if !ok {
			continue // duplicate in ids
		}
		x.dead[s] = true
		delete(x.slot, id)
		x.tombstones++
	}
	if x.shouldCompact() {
		x.compact()
	}
	return nil
}

func (x *Index) Reset(_ context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = nil
	x.ids = nil
	x.dead = nil
	x.slot = make(map[vectorDB.EntryID]int)
	x.tombstones = 0
	return nil
}

func (x *Index) shouldCompact() bool {
	return len(x.ids) > 0 && float64(x.tombstones)/float64(len(x.ids)) >= x.ratio
}

// compact drops tombstoned slots, keeping live entries in insertion order.
func (x *Index) compact() {
	before := len(x.ids)
	live := before - x.tombstones
	vectors := make([]float32, 0, live*x.dim)
	ids := make([]vectorDB.EntryID, 0, live)
	for i, id := range x.ids {
		if x.dead[i] {
			continue
		}
		x.slot[id] = len(ids)
		ids = append(ids, id)
		vectors = append(vectors, x.vectors[i*x.dim:(i+1)*x.dim]...)
	}
	x.vectors = vectors
	x.ids = ids
	x.dead = make([]bool, len(ids))
	x.tombstones = 0
	x.logger.Debug("compacted index", "slotsBefore", before, "slotsAfter", len(ids))
}
