package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/memory"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/flatIndex"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/indexFile"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/google/uuid"
)

var logger = logger_i.NewLogger("session")

// Session is the state of one conversation: its own corpus and its own
// memory. Every operation receives the session explicitly.
type Session struct {
	Id        string
	CreatedAt time.Time
	Corpus    *retrieval.Manager
	Memory    *memory.Conversation
	index     vectorDB.VectorIndex
}

// IndexFactory builds the vector index backing a new session.
type IndexFactory func(ctx context.Context, sessionId string, dimension int) (vectorDB.VectorIndex, error)

func FlatIndexFactory(compactionRatio float64) IndexFactory {
	return func(_ context.Context, _ string, dimension int) (vectorDB.VectorIndex, error) {
		return flatIndex.New(dimension, compactionRatio), nil
	}
}

func QdrantIndexFactory(holder *qdrantDB.ClientHolder) IndexFactory {
	return func(ctx context.Context, sessionId string, dimension int) (vectorDB.VectorIndex, error) {
		return holder.OpenCollection(ctx, sessionId, dimension)
	}
}

type Options struct {
	Corpus     retrieval.Options
	WindowSize int
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	embedder embedding.Embedder
	messages jobModel.MessageStore
	newIndex IndexFactory
	base     []indexFile.BaseDocument
	opts     Options
}

func NewRegistry(embedder embedding.Embedder, messages jobModel.MessageStore, newIndex IndexFactory, base []indexFile.BaseDocument, opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		embedder: embedder,
		messages: messages,
		newIndex: newIndex,
		base:     base,
		opts:     opts,
	}
}

func (r *Registry) Embedder() embedding.Embedder { return r.embedder }

// Create opens a session seeded with the base corpus.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	log := logger.WithTrace(ctx).With("sessionId", id)

	index, err := r.newIndex(ctx, id, r.embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	corpus, err := retrieval.NewManager(index, r.embedder, r.opts.Corpus)
	if err != nil {
		dropIndex(ctx, index)
		return nil, err
	}
	if err = r.seed(ctx, corpus); err != nil {
		dropIndex(ctx, index)
		return nil, err
	}
	conv, err := memory.Open(ctx, r.messages, id, r.opts.WindowSize)
	if err != nil {
		dropIndex(ctx, index)
		return nil, fmt.Errorf("open memory: %w", err)
	}

	s := &Session{Id: id, CreatedAt: time.Now(), Corpus: corpus, Memory: conv, index: index}
	r.mu.Lock()
	r.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	log.Info("session created", "baseDocuments", len(r.base))
	return s, nil
}

func (r *Registry) seed(ctx context.Context, corpus *retrieval.Manager) error {
	for _, doc := range r.base {
		if _, err := corpus.AddDocumentVectors(ctx, doc.Record, doc.Vectors); err != nil {
			return fmt.Errorf("seed base document %s: %w", doc.Record.Id, err)
		}
	}
	return nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, commonModels.ErrSessionNotFound)
	}
	return s, nil
}

// Reset drops every uploaded document and the conversation. Base documents
// stay with their ids.
func (r *Registry) Reset(ctx context.Context, id string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	removed, err := s.Corpus.ClearUnpinned(ctx)
	if err != nil {
		return err
	}
	if err = s.Memory.Clear(ctx); err != nil {
		return err
	}
	logger.WithTrace(ctx).Info("session reset", "sessionId", id, "removed", removed)
	return nil
}

// Delete tears the session down. The session is unregistered even when
// releasing its resources fails.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, commonModels.ErrSessionNotFound)
	}
	return s.close(ctx)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close tears down every session.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		errs = append(errs, s.close(ctx))
	}
	return errors.Join(errs...)
}

func (s *Session) close(ctx context.Context) error {
	memErr := s.Memory.Close(ctx)
	dropIndex(ctx, s.index)
	return memErr
}

type droppable interface {
	Drop(ctx context.Context) error
}

func dropIndex(ctx context.Context, index vectorDB.VectorIndex) {
	if d, ok := index.(droppable); ok {
		if err := d.Drop(ctx); err != nil {
			logger.Warn("could not drop index", "error", err)
		}
	}
}
