package indexFile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseDoc(id, text string, spans [][2]int, vectors [][]float32) BaseDocument {
	record := commonModels.DocumentRecord{
		Id:          id,
		SourceLabel: id + ".pdf",
		DisplayName: "Roxy Example",
		Kind:        commonModels.KindResume,
		RawText:     text,
		Metadata:    commonModels.Metadata{Name: "Roxy Example", Skills: []string{"Go", "SQL"}},
	}
	for i, s := range spans {
		record.Chunks = append(record.Chunks, commonModels.Chunk{Index: i, Text: text[s[0]:s[1]], Start: s[0], End: s[1]})
	}
	return BaseDocument{Record: record, Vectors: vectors}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	text := "First paragraph here.\n\nSecond paragraph there."
	docs := []BaseDocument{
		baseDoc("roxy-resume", text, [][2]int{{0, 21}, {23, len(text)}}, [][]float32{{0.5, -1, 2}, {1, 0, 0.25}}),
		baseDoc("roxy-profile", "About me.", [][2]int{{0, 9}}, [][]float32{{0, 0, 1}}),
	}
	require.NoError(t, Save(dir, "local-hash", docs))

	manifest, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, manifest.Dimension)
	assert.Equal(t, "local-hash", manifest.EmbeddingModel)
	assert.Len(t, manifest.Documents, 2)

	loaded, err := Load(dir, 3)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	first := loaded[0]
	assert.Equal(t, "roxy-resume", first.Record.Id)
	assert.True(t, first.Record.Pinned)
	assert.Equal(t, commonModels.ReasonPinned, first.Record.Validity.Reason)
	assert.Equal(t, "Second paragraph there.", first.Record.Chunks[1].Text)
	assert.Equal(t, docs[0].Vectors, first.Vectors)
	assert.Equal(t, []string{"Go", "SQL"}, first.Record.Metadata.Skills)
	assert.Equal(t, docs[1].Vectors, loaded[1].Vectors)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, "local-hash", []BaseDocument{
		baseDoc("a", "some text", [][2]int{{0, 4}}, [][]float32{{1, 2}}),
	}))

	_, err := Load(dir, 3)
	assert.ErrorIs(t, err, commonModels.ErrDimensionMismatch)
}

func TestLoad_TruncatedVectors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, "local-hash", []BaseDocument{
		baseDoc("a", "some text", [][2]int{{0, 4}, {5, 9}}, [][]float32{{1, 2}, {3, 4}}),
	}))
	path := filepath.Join(dir, config.BaseVectorsFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)-4], 0o644))

	_, err = Load(dir, 2)
	assert.Error(t, err)
}

func TestSave_Rejects(t *testing.T) {
	assert.Error(t, Save(t.TempDir(), "m", nil))

	mismatched := baseDoc("a", "some text", [][2]int{{0, 4}, {5, 9}}, [][]float32{{1, 2}})
	assert.Error(t, Save(t.TempDir(), "m", []BaseDocument{mismatched}))

	mixed := baseDoc("a", "some text", [][2]int{{0, 4}, {5, 9}}, [][]float32{{1, 2}, {1, 2, 3}})
	assert.ErrorIs(t, Save(t.TempDir(), "m", []BaseDocument{mixed}), commonModels.ErrDimensionMismatch)
}
