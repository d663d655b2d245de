package flatIndex

import (
	"context"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertAll(t *testing.T, x *Index, vectors ...[]float32) []vectorDB.EntryID {
	t.Helper()
	ids := make([]vectorDB.EntryID, 0, len(vectors))
	for _, v := range vectors {
		id, err := x.Insert(context.Background(), v)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestQuery_OrdersByDistanceThenInsertion(t *testing.T) {
	ctx := context.Background()
	x := New(2, 0.3)
	ids := insertAll(t, x,
		[]float32{3, 0},
		[]float32{1, 0},
		[]float32{0, 1}, // same distance from origin as the previous one
		[]float32{5, 5},
	)

	hits, err := x.Query(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []vectorDB.EntryID{ids[1], ids[2], ids[0]}, []vectorDB.EntryID{hits[0].ID, hits[1].ID, hits[2].ID})
	assert.InDelta(t, 1.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 3.0, hits[2].Distance, 1e-6)
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	x := New(2, 0.3)
	insertAll(t, x, []float32{1, 1})

	hits, err := x.Query(context.Background(), []float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = x.Query(context.Background(), []float32{0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDimensionMismatch(t *testing.T) {
	x := New(3, 0.3)
	_, err := x.Insert(context.Background(), []float32{1, 2})
	assert.ErrorIs(t, err, commonModels.ErrDimensionMismatch)

	var dimErr *commonModels.DimensionError
	_, err = x.Query(context.Background(), []float32{1}, 1)
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 1, dimErr.Got)
	assert.Equal(t, 0, x.Len())
}

func TestRemove_TombstonesAndCompacts(t *testing.T) {
	ctx := context.Background()
	x := New(1, 0.5)
	ids := insertAll(t, x, []float32{1}, []float32{2}, []float32{3}, []float32{4})

	require.NoError(t, x.Remove(ctx, ids[:1]))
	assert.Equal(t, 3, x.Len())
	assert.Equal(t, 1, x.Tombstones())

	// second removal reaches the ratio and compacts
	require.NoError(t, x.Remove(ctx, ids[1:2]))
	assert.Equal(t, 2, x.Len())
	assert.Equal(t, 0, x.Tombstones())

	hits, err := x.Query(ctx, []float32{0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, ids[2], hits[0].ID)
	assert.Equal(t, ids[3], hits[1].ID)

	// ids stay valid after compaction and are never reused
	next := insertAll(t, x, []float32{0})
	assert.Greater(t, next[0], ids[3])
	require.NoError(t, x.Remove(ctx, ids[3:]))
	assert.Equal(t, 2, x.Len())
}

func TestRemove_UnknownIdChangesNothing(t *testing.T) {
	ctx := context.Background()
	x := New(1, 0.3)
	ids := insertAll(t, x, []float32{1}, []float32{2})

	err := x.Remove(ctx, []vectorDB.EntryID{ids[0], 99})
	assert.ErrorIs(t, err, commonModels.ErrNotFound)
	assert.Equal(t, 2, x.Len())

	require.NoError(t, x.Remove(ctx, ids[:1]))
	assert.ErrorIs(t, x.Remove(ctx, ids[:1]), commonModels.ErrNotFound)
}

func TestQueryFiltered(t *testing.T) {
	x := New(1, 0.3)
	ids := insertAll(t, x, []float32{1}, []float32{2}, []float32{3})

	hits, err := x.QueryFiltered(context.Background(), []float32{0}, 5, func(id vectorDB.EntryID) bool {
		return id != ids[0]
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, ids[1], hits[0].ID)

	generic, err := vectorDB.QueryWhere(context.Background(), x, []float32{0}, 1, func(id vectorDB.EntryID) bool {
		return id == ids[2]
	})
	require.NoError(t, err)
	require.Len(t, generic, 1)
	assert.Equal(t, ids[2], generic[0].ID)
}

func TestReset_KeepsIdSequence(t *testing.T) {
	ctx := context.Background()
	x := New(1, 0.3)
	ids := insertAll(t, x, []float32{1})
	require.NoError(t, x.Reset(ctx))
	assert.Equal(t, 0, x.Len())

	after := insertAll(t, x, []float32{1})
	assert.Greater(t, after[0], ids[0])
}
