package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/indexFile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 64

const roxyResume = `Roxy Example
roxy@example.com

Experience
Platform Engineer, 2019 - present. Kubernetes, Go and AWS.`

const roxyProfile = `I grew up by the sea and spend weekends climbing.`

func writeSources(t *testing.T) []BaseSource {
	t.Helper()
	dir := t.TempDir()
	resume := filepath.Join(dir, "roxy_resume.txt")
	profile := filepath.Join(dir, "about_me.md")
	require.NoError(t, os.WriteFile(resume, []byte(roxyResume), 0o644))
	require.NoError(t, os.WriteFile(profile, []byte(roxyProfile), 0o644))
	return []BaseSource{
		{Path: resume, Kind: commonModels.KindResume, DisplayName: "Roxy Example"},
		{Path: profile, Kind: commonModels.KindProfile, DisplayName: "Roxy Example (profile)"},
	}
}

func buildBase(t *testing.T) []indexFile.BaseDocument {
	t.Helper()
	docs, err := BuildBaseCorpus(context.Background(), ingest.NewIngestor(nil, ingest.DefaultOptions()), hashEmbedding.New(dim), writeSources(t))
	require.NoError(t, err)
	return docs
}

func newRegistry(base []indexFile.BaseDocument) *Registry {
	return NewRegistry(hashEmbedding.New(dim), store.InitMessageStore(), FlatIndexFactory(0.3), base,
		Options{Corpus: retrieval.DefaultOptions(), WindowSize: 3})
}

func TestBuildBaseCorpus(t *testing.T) {
	docs := buildBase(t)
	require.Len(t, docs, 2)

	resume, profile := docs[0].Record, docs[1].Record
	assert.True(t, resume.Pinned)
	assert.Equal(t, "Roxy Example", resume.DisplayName)
	assert.Equal(t, commonModels.KindProfile, profile.Kind)
	assert.Len(t, profile.Chunks, 1)
	assert.Len(t, docs[1].Vectors, 1)
	assert.Len(t, docs[0].Vectors, len(resume.Chunks))

	_, err := BuildBaseCorpus(context.Background(), ingest.NewIngestor(nil, ingest.DefaultOptions()), hashEmbedding.New(dim),
		[]BaseSource{{Path: filepath.Join(t.TempDir(), "missing.txt")}})
	assert.Error(t, err)
}

func TestLoadBaseCorpus(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	docs, err := LoadBaseCorpus(ctx, dir, hashEmbedding.New(dim))
	require.NoError(t, err)
	assert.Empty(t, docs, "a missing index is an empty base")

	require.NoError(t, indexFile.Save(dir, hashEmbedding.New(dim).ModelName(), buildBase(t)))
	docs, err = LoadBaseCorpus(ctx, dir, hashEmbedding.New(dim))
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = LoadBaseCorpus(ctx, dir, hashEmbedding.New(dim*2))
	assert.ErrorIs(t, err, commonModels.ErrDimensionMismatch)
}

type failingEmbedder struct{ *hashEmbedding.Embedder }

func (failingEmbedder) BatchEmbedding(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

func TestLoadBaseCorpus_OtherModelIsReembedded(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, indexFile.Save(dir, "gemini-embedding-001", buildBase(t)))

	running := hashEmbedding.New(dim * 2)
	docs, err := LoadBaseCorpus(ctx, dir, running)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, d := range docs {
		require.Len(t, d.Vectors, len(d.Record.Chunks))
		for i, c := range d.Record.Chunks {
			want, err := running.GetEmbedding(ctx, retrieval.EmbeddingInput(d.Record.DisplayName, c.Text))
			require.NoError(t, err)
			assert.Equal(t, want, d.Vectors[i], "vectors must come from the running embedder")
		}
	}

	r := NewRegistry(running, store.InitMessageStore(), FlatIndexFactory(0.3), docs,
		Options{Corpus: retrieval.DefaultOptions(), WindowSize: 3})
	sess, err := r.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Corpus.Len())

	_, err = LoadBaseCorpus(ctx, dir, failingEmbedder{hashEmbedding.New(dim)})
	assert.Error(t, err, "a base index that cannot be re-embedded must fail the start")
}

func TestRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(buildBase(t))

	sess, err := r.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, sess.Corpus.Len(), "sessions start with the base corpus")
	assert.Equal(t, 3, sess.Memory.WindowSize())

	got, err := r.Get(sess.Id)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, r.Delete(ctx, sess.Id))
	_, err = r.Get(sess.Id)
	assert.ErrorIs(t, err, commonModels.ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(ctx, sess.Id), commonModels.ErrSessionNotFound)
	assert.ErrorIs(t, r.Reset(ctx, sess.Id), commonModels.ErrSessionNotFound)
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := newRegistry(nil)
	a, err := r.Create(ctx)
	require.NoError(t, err)
	b, err := r.Create(ctx)
	require.NoError(t, err)

	ingestor := ingest.NewIngestor(nil, ingest.DefaultOptions())
	record, err := ingestor.Ingest(ctx, roxyResume, "roxy.txt")
	require.NoError(t, err)
	_, err = a.Corpus.AddDocument(ctx, record)
	require.NoError(t, err)
	_, err = a.Memory.Append(ctx, "q", "a")
	require.NoError(t, err)

	assert.Equal(t, 1, a.Corpus.Len())
	assert.Equal(t, 0, b.Corpus.Len())
	turns, err := b.Memory.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, r.Close(ctx))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ResetKeepsBaseDocuments(t *testing.T) {
	ctx := context.Background()
	base := buildBase(t)
	r := newRegistry(base)
	sess, err := r.Create(ctx)
	require.NoError(t, err)

	record, err := ingest.NewIngestor(nil, ingest.DefaultOptions()).Ingest(ctx, roxyResume, "upload.txt")
	require.NoError(t, err)
	_, err = sess.Corpus.AddDocument(ctx, record)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = sess.Memory.Append(ctx, "question", "answer")
		require.NoError(t, err)
	}

	require.NoError(t, r.Reset(ctx, sess.Id))
	assert.Equal(t, 2, sess.Corpus.Len())
	for _, d := range sess.Corpus.Documents() {
		assert.True(t, d.Pinned)
		assert.Contains(t, []string{base[0].Record.Id, base[1].Record.Id}, d.Id, "base ids survive a reset")
	}
	turns, err := sess.Memory.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, turns)

	turn, err := sess.Memory.Append(ctx, "again", "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(1), turn.Seq)
	require.NoError(t, sess.Corpus.CheckInvariants())
}
