package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/indexFile"
)

// LoadBaseCorpus reads the persisted base index from dir. A missing index is
// not an error and yields an empty base. An index built with another
// embedding model is re-embedded from its stored text, since its vectors
// cannot share an index with the running embedder's. With the same model a
// dimension that does not match fails here, so the process never starts
// with an unusable corpus.
func LoadBaseCorpus(ctx context.Context, dir string, embedder embedding.Embedder) ([]indexFile.BaseDocument, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(filepath.Join(dir, config.BaseManifestFile)); errors.Is(err, os.ErrNotExist) {
		logger.Info("no base index found, starting with an empty base corpus", "dir", dir)
		return nil, nil
	}

	manifest, err := indexFile.ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest.EmbeddingModel == embedder.ModelName() {
		docs, err := indexFile.Load(dir, embedder.Dimension())
		if err != nil {
			return nil, fmt.Errorf("load base index %s: %w", dir, err)
		}
		logger.Info("base index loaded", "dir", dir, "documents", len(docs))
		return docs, nil
	}

	logger.Warn("base index was built with a different embedding model, re-embedding it",
		"indexModel", manifest.EmbeddingModel, "embedderModel", embedder.ModelName())
	docs, err := indexFile.Load(dir, manifest.Dimension)
	if err != nil {
		return nil, fmt.Errorf("load base index %s: %w", dir, err)
	}
	for i := range docs {
		if docs[i].Vectors, err = embedRecord(ctx, embedder, docs[i].Record); err != nil {
			return nil, fmt.Errorf("re-embed base document %s: %w", docs[i].Record.Id, err)
		}
	}
	logger.Info("base index loaded and re-embedded", "dir", dir, "documents", len(docs))
	return docs, nil
}

func embedRecord(ctx context.Context, embedder embedding.Embedder, record commonModels.DocumentRecord) ([][]float32, error) {
	inputs := make([]string, len(record.Chunks))
	for i, c := range record.Chunks {
		inputs[i] = retrieval.EmbeddingInput(record.DisplayName, c.Text)
	}
	return embedding.EmbedAll(ctx, embedder, inputs, config.EmbeddingBatchSize)
}

// BaseSource is one input of the base index build.
type BaseSource struct {
	Path        string
	Kind        commonModels.DocumentKind
	DisplayName string
}

// BuildBaseCorpus extracts, chunks and embeds the base documents. Resumes
// are chunked by paragraph and analysed; profiles stay a single chunk.
func BuildBaseCorpus(ctx context.Context, ingestor *ingest.Ingestor, embedder embedding.Embedder, sources []BaseSource) ([]indexFile.BaseDocument, error) {
	docs := make([]indexFile.BaseDocument, 0, len(sources))
	for _, src := range sources {
		text, _, err := ingestor.ExtractText(src.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Path, err)
		}
		label := filepath.Base(src.Path)

		var record commonModels.DocumentRecord
		if src.Kind == commonModels.KindProfile {
			record, err = ingestor.IngestProfile(text, label, src.DisplayName)
		} else {
			record, err = ingestor.IngestPinnedResume(ctx, text, label)
			if err == nil && src.DisplayName != "" {
				record.DisplayName = src.DisplayName
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Path, err)
		}

		vectors, err := embedRecord(ctx, embedder, record)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", src.Path, err)
		}
		logger.Info("base document prepared", "id", record.Id, "kind", record.Kind, "chunks", len(record.Chunks))
		docs = append(docs, indexFile.BaseDocument{Record: record, Vectors: vectors})
	}
	return docs, nil
}
