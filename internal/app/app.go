package app

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/rag"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/internal/rag/providers"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

var logger = logger_i.NewLogger("bootstrap")

// App holds the collaborators every entry point shares.
type App struct {
	Settings     config.Settings
	Embedder     embedding.Embedder
	LLM          llm.Provider
	Ingestor     *ingest.Ingestor
	Sessions     *session.Registry
	RAG          rag.Service
	JobStore     jobModel.JobStore
	MessageStore jobModel.MessageStore
}

// Build connects the configured providers and stores. Unreachable Redis or
// Qdrant degrade to in-memory equivalents; a base index that cannot be used
// with the embedder is fatal.
func Build(ctx context.Context, settings config.Settings) (*App, error) {
	a := &App{Settings: settings}

	var err error
	a.JobStore, a.MessageStore, err = openStores(ctx)
	if err != nil {
		return nil, err
	}

	a.Embedder = providers.NewEmbedder(ctx, settings.Embedding)
	if a.Embedder == nil {
		return nil, errors.New("no embedder available")
	}
	a.LLM = providers.NewLLM(ctx, settings.LLM)
	if a.LLM == nil {
		logger.Warn("no LLM provider, questions and summaries will be rejected")
	}

	a.Ingestor = ingest.NewIngestor(a.LLM, IngestOptions(settings))

	base, err := session.LoadBaseCorpus(ctx, settings.Corpus.BaseIndexDir, a.Embedder)
	if err != nil {
		return nil, err
	}

	a.Sessions = session.NewRegistry(a.Embedder, a.MessageStore, indexFactory(ctx, settings), base, session.Options{
		Corpus:     CorpusOptions(settings),
		WindowSize: settings.Corpus.ConversationSize,
	})

	ragOpts := rag.DefaultOptions()
	ragOpts.AskTimeout = settings.Service.AskTimeout
	ragOpts.IngestTimeout = settings.Service.IngestTimeout
	ragOpts.AnswerTemperature = settings.LLM.AnswerTemperature
	a.RAG = rag.NewService(a.LLM, a.Ingestor, ragOpts)

	logger.Info("services ready",
		"embedder", a.Embedder.ModelName(),
		"llm", a.LLM != nil,
		"baseDocuments", len(base),
		"vectorBackend", settings.Corpus.VectorBackend)
	return a, nil
}

func (a *App) Close(ctx context.Context) {
	if err := a.Sessions.Close(ctx); err != nil {
		logger.Warn("closing sessions", "error", err)
	}
}

func CorpusOptions(s config.Settings) retrieval.Options {
	opts := retrieval.DefaultOptions()
	opts.Capacity = s.Corpus.Capacity
	opts.SingleDocK = s.Corpus.SingleDocK
	opts.CrossDocK = s.Corpus.CrossDocK
	opts.ChunksPerDocument = s.Corpus.ChunksPerDocument
	return opts
}

func IngestOptions(s config.Settings) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.ChunkFloor = s.Corpus.ChunkFloor
	opts.ChunkCeiling = s.Corpus.ChunkCeiling
	opts.ChunkOverlap = s.Corpus.ChunkOverlap
	opts.ExtractTemperature = s.LLM.ExtractTemperature
	return opts
}

func openStores(ctx context.Context) (jobModel.JobStore, jobModel.MessageStore, error) {
	jobs := store.GetRedisJobStore(ctx)
	messages := store.GetRedisMessageStore(ctx)
	if jobs != nil && messages != nil {
		return jobs, messages, nil
	}
	if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
		return nil, nil, errors.New("redis stores are offline")
	}
	logger.Warn("Redis stores are offline, using in-memory stores")
	return store.InitInMemoryJobStore(), store.InitMessageStore(), nil
}

func indexFactory(ctx context.Context, s config.Settings) session.IndexFactory {
	if strings.EqualFold(s.Corpus.VectorBackend, "qdrant") {
		if holder := qdrantDB.GetQuadrantClient(ctx, s.Service.QdrantHost, s.Service.QdrantPort); holder != nil {
			return session.QdrantIndexFactory(holder)
		}
		logger.Warn("Qdrant unavailable, using the in-memory index")
	}
	return session.FlatIndexFactory(s.Corpus.CompactionRatio)
}
