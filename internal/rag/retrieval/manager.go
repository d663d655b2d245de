package retrieval

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding"
	"github.com/akolanti/ResumeRAG/internal/rag/vectorDB"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

type Options struct {
	// Capacity bounds the number of unpinned documents. 0 disables eviction.
	Capacity          int
	SingleDocK        int
	CrossDocK         int
	ChunksPerDocument int
	EmbedBatchSize    int
}

func DefaultOptions() Options {
	return Options{
		Capacity:          config.DefaultCapacity,
		SingleDocK:        config.DefaultSingleDocK,
		CrossDocK:         config.DefaultCrossDocK,
		ChunksPerDocument: config.DefaultChunksPerDocument,
		EmbedBatchSize:    config.EmbeddingBatchSize,
	}
}

type entryRef struct {
	documentId string
	chunkIndex int
}

// Manager owns one corpus: the vector index and the document records whose
// chunks it holds. All mutation happens under the write lock, so readers
// never see a record without its vectors or the other way round.
type Manager struct {
	mu        sync.RWMutex
	index     vectorDB.VectorIndex
	embedder  embedding.Embedder
	opts      Options
	documents map[string]*commonModels.DocumentRecord
	order     []string
	entries   map[string][]vectorDB.EntryID
	owners    map[vectorDB.EntryID]entryRef
	issued    map[string]struct{}
	logger    *logger_i.Logger
	now       func() time.Time
}

func NewManager(index vectorDB.VectorIndex, embedder embedding.Embedder, opts Options) (*Manager, error) {
	if index.Dimension() != embedder.Dimension() {
		return nil, &commonModels.DimensionError{Expected: index.Dimension(), Got: embedder.Dimension()}
	}
	return &Manager{
		index:     index,
		embedder:  embedder,
		opts:      opts,
		documents: make(map[string]*commonModels.DocumentRecord),
		entries:   make(map[string][]vectorDB.EntryID),
		owners:    make(map[vectorDB.EntryID]entryRef),
		issued:    make(map[string]struct{}),
		logger:    logger_i.NewLogger("retrieval"),
		now:       time.Now,
	}, nil
}

func (m *Manager) Options() Options { return m.opts }

// AddDocument embeds every chunk and adds the record. On success the
// returned record carries the final id. Nothing is changed on failure.
func (m *Manager) AddDocument(ctx context.Context, record commonModels.DocumentRecord) (commonModels.DocumentRecord, error) {
	if len(record.Chunks) == 0 {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}
	texts := make([]string, len(record.Chunks))
	for i, c := range record.Chunks {
		texts[i] = EmbeddingInput(record.DisplayName, c.Text)
	}

	start := time.Now()
	vectors, err := embedding.EmbedAll(ctx, m.embedder, texts, m.opts.EmbedBatchSize)
	metrics.CaptureExecutionMetrics("chunk_embedding", time.Since(start))
	if err != nil {
		return commonModels.DocumentRecord{}, err
	}
	return m.AddDocumentVectors(ctx, record, vectors)
}

// AddDocumentVectors adds a record whose chunk vectors are already known,
// e.g. from the persisted base index.
func (m *Manager) AddDocumentVectors(ctx context.Context, record commonModels.DocumentRecord, vectors [][]float32) (commonModels.DocumentRecord, error) {
	if len(record.Chunks) == 0 {
		return commonModels.DocumentRecord{}, commonModels.ErrEmptyDocument
	}
	if len(vectors) != len(record.Chunks) {
		return commonModels.DocumentRecord{}, fmt.Errorf("%d chunks but %d vectors", len(record.Chunks), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != m.index.Dimension() {
			return commonModels.DocumentRecord{}, &commonModels.DimensionError{Expected: m.index.Dimension(), Got: len(v)}
		}
	}
	if err := ctx.Err(); err != nil {
		return commonModels.DocumentRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := cloneRecord(record)
	stored.Id = m.uniqueIdLocked(record.Id)
	if stored.IngestedAt.IsZero() {
		stored.IngestedAt = m.now()
	}
	log := m.logger.WithTrace(ctx).With("docId", stored.Id)

	inserted := make([]vectorDB.EntryID, 0, len(vectors))
	for i, v := range vectors {
		id, err := m.index.Insert(ctx, v)
		if err != nil {
			if rbErr := m.rollbackLocked(ctx, inserted); rbErr != nil {
				log.Error("rollback after failed insert also failed", "error", rbErr)
				err = errors.Join(err, rbErr)
			}
			return commonModels.DocumentRecord{}, fmt.Errorf("insert chunk %d: %w", i, err)
		}
		inserted = append(inserted, id)
	}

	m.documents[stored.Id] = stored
	m.order = append(m.order, stored.Id)
	m.entries[stored.Id] = inserted
	for i, id := range inserted {
		m.owners[id] = entryRef{documentId: stored.Id, chunkIndex: i}
	}

	if err := m.evictLocked(ctx, stored.Id); err != nil {
		if rbErr := m.removeLocked(ctx, stored.Id); rbErr != nil {
			log.Error("rollback after failed eviction also failed", "error", rbErr)
			err = errors.Join(err, rbErr)
		}
		return commonModels.DocumentRecord{}, fmt.Errorf("evict: %w", err)
	}

	m.reportLocked()
	log.Info("document added", "chunks", len(inserted), "documents", len(m.order), "entries", m.index.Len())
	return *cloneRecord(*stored), nil
}

// evictLocked drops the oldest unpinned documents until the corpus is within
// capacity. keep is never evicted.
func (m *Manager) evictLocked(ctx context.Context, keep string) error {
	if m.opts.Capacity <= 0 {
		return nil
	}
	for m.unpinnedLocked() > m.opts.Capacity {
		victim := ""
		for _, id := range m.order {
			if id != keep && !m.documents[id].Pinned {
				victim = id
				break
			}
		}
		if victim == "" {
			return commonModels.ErrCorpusCapacityExhausted
		}
		if err := m.removeLocked(ctx, victim); err != nil {
			return err
		}
		metrics.CorpusEvictions.Inc()
		m.logger.WithTrace(ctx).Info("evicted oldest document", "docId", victim, "capacity", m.opts.Capacity)
	}
	return nil
}

func (m *Manager) unpinnedLocked() int {
	n := 0
	for _, d := range m.documents {
		if !d.Pinned {
			n++
		}
	}
	return n
}

func (m *Manager) rollbackLocked(ctx context.Context, ids []vectorDB.EntryID) error {
	if len(ids) == 0 {
		return nil
	}
	return m.index.Remove(ctx, ids)
}

// RemoveDocument deletes the record and all of its vectors.
func (m *Manager) RemoveDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	if err := m.removeLocked(ctx, id); err != nil {
		return err
	}
	m.reportLocked()
	return nil
}

func (m *Manager) removeLocked(ctx context.Context, id string) error {
	ids := m.entries[id]
	if err := m.index.Remove(ctx, ids); err != nil {
		return fmt.Errorf("remove vectors of %s: %w", id, err)
	}
	for _, e := range ids {
		delete(m.owners, e)
	}
	delete(m.entries, id)
	delete(m.documents, id)
	m.order = slices.DeleteFunc(m.order, func(o string) bool { return o == id })
	return nil
}

// Reset empties the corpus. Issued ids stay reserved.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	m.documents = make(map[string]*commonModels.DocumentRecord)
	m.entries = make(map[string][]vectorDB.EntryID)
	m.owners = make(map[vectorDB.EntryID]entryRef)
	m.order = nil
	m.reportLocked()
	return nil
}

// ClearUnpinned removes every uploaded document and keeps the pinned base
// documents with their original ids. Returns the number removed.
func (m *Manager) ClearUnpinned(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	victims := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if !m.documents[id].Pinned {
			victims = append(victims, id)
		}
	}
	ids := make([]vectorDB.EntryID, 0)
	for _, id := range victims {
		ids = append(ids, m.entries[id]...)
	}
	if len(ids) > 0 {
		if err := m.index.Remove(ctx, ids); err != nil {
			return 0, fmt.Errorf("clear uploads: %w", err)
		}
	}
	for _, id := range victims {
		for _, e := range m.entries[id] {
			delete(m.owners, e)
		}
		delete(m.entries, id)
		delete(m.documents, id)
	}
	m.order = slices.DeleteFunc(m.order, func(o string) bool {
		_, live := m.documents[o]
		return !live
	})
	m.reportLocked()
	return len(victims), nil
}

// UpdateMetadata replaces the metadata and display name of a record.
func (m *Manager) UpdateMetadata(id string, meta commonModels.Metadata, displayName string) (commonModels.DocumentInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return commonModels.DocumentInfo{}, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	d.Metadata = meta
	if displayName != "" {
		d.DisplayName = displayName
	}
	return d.Info(), nil
}

func (m *Manager) Document(id string) (commonModels.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return commonModels.DocumentRecord{}, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	return *cloneRecord(*d), nil
}

// Documents lists the corpus in insertion order.
func (m *Manager) Documents() []commonModels.DocumentInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commonModels.DocumentInfo, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.documents[id].Info())
	}
	return out
}

// Summarize returns the full text, chunks and metadata of one document.
func (m *Manager) Summarize(id string) (commonModels.DocumentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok {
		return commonModels.DocumentSummary{}, fmt.Errorf("document %s: %w", id, commonModels.ErrNotFound)
	}
	chunks := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		chunks[i] = c.Text
	}
	return commonModels.DocumentSummary{
		Id:          d.Id,
		DisplayName: d.DisplayName,
		RawText:     d.RawText,
		Chunks:      chunks,
		Metadata:    d.Metadata,
		Validity:    d.Validity,
	}, nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

func (m *Manager) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index.Len()
}

// CheckInvariants verifies that the index holds exactly one entry per chunk
// of every live record and that every entry has an owner.
func (m *Manager) CheckInvariants() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := 0
	for id, d := range m.documents {
		chunks += len(d.Chunks)
		if len(m.entries[id]) != len(d.Chunks) {
			return fmt.Errorf("document %s has %d chunks but %d entries", id, len(d.Chunks), len(m.entries[id]))
		}
	}
	if m.index.Len() != chunks || len(m.owners) != chunks {
		return fmt.Errorf("index holds %d entries and %d owners for %d chunks", m.index.Len(), len(m.owners), chunks)
	}
	for e, ref := range m.owners {
		if _, ok := m.documents[ref.documentId]; !ok {
			return fmt.Errorf("entry %d owned by missing document %s", e, ref.documentId)
		}
	}
	if len(m.order) != len(m.documents) {
		return fmt.Errorf("order lists %d documents, map holds %d", len(m.order), len(m.documents))
	}
	return nil
}

func (m *Manager) uniqueIdLocked(proposed string) string {
	if proposed == "" {
		proposed = "document"
	}
	id := proposed
	for n := 2; ; n++ {
		if _, taken := m.issued[id]; !taken {
			break
		}
		id = proposed + "-" + strconv.Itoa(n)
	}
	m.issued[id] = struct{}{}
	return id
}

func (m *Manager) reportLocked() {
	metrics.CorpusDocuments.Observe(float64(len(m.order)))
}

// EmbeddingInput prefixes a chunk with its owner's name so that questions
// naming a person lean towards their chunks.
func EmbeddingInput(displayName, chunk string) string {
	if displayName == "" {
		return chunk
	}
	return "[" + displayName + "]\n" + chunk
}

func cloneRecord(r commonModels.DocumentRecord) *commonModels.DocumentRecord {
	r.Chunks = slices.Clone(r.Chunks)
	r.Metadata.Skills = slices.Clone(r.Metadata.Skills)
	r.Metadata.Industries = slices.Clone(r.Metadata.Industries)
	if r.Metadata.YearsExperience != nil {
		years := *r.Metadata.YearsExperience
		r.Metadata.YearsExperience = &years
	}
	return &r
}
