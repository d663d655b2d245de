package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/job"
	"github.com/akolanti/ResumeRAG/internal/rag"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/session"
)

// MockRagService counts the jobs it is handed, per type.
type MockRagService struct {
	rag.Service
	Queries    int32
	Ingests    int32
	Summaries  int32
	Reanalyzes int32
	OnQuery    func(j jobModel.Job) jobModel.Job
}

func (m *MockRagService) ProcessRequest(ctx context.Context, j jobModel.Job, sess *session.Session) jobModel.Job {
	atomic.AddInt32(&m.Queries, 1)
	if m.OnQuery != nil {
		return m.OnQuery(j)
	}
	j.JobPayload.Answer = "answer"
	return j
}

func (m *MockRagService) IngestDocument(ctx context.Context, j jobModel.Job, sess *session.Session) jobModel.Job {
	atomic.AddInt32(&m.Ingests, 1)
	return j
}

func (m *MockRagService) SummarizeDocument(ctx context.Context, j jobModel.Job, sess *session.Session) jobModel.Job {
	atomic.AddInt32(&m.Summaries, 1)
	return j
}

func (m *MockRagService) ReanalyzeDocument(ctx context.Context, j jobModel.Job, sess *session.Session) jobModel.Job {
	atomic.AddInt32(&m.Reanalyzes, 1)
	return j
}

type MockJobStore struct {
	mu    sync.Mutex
	saved map[string][]jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.saved[jobId]
	if len(history) == 0 {
		return jobModel.Job{}, false
	}
	return history[len(history)-1], true
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, jobID)
}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string][]jobModel.Job)
	}
	m.saved[j.Id] = append(m.saved[j.Id], j)
	return nil
}

func newTestJobService(t *testing.T) (*job.Service, *MockJobStore, *session.Session) {
	t.Helper()
	messages := store.InitMessageStore()
	registry := session.NewRegistry(hashEmbedding.New(16), messages, session.FlatIndexFactory(0.3), nil,
		session.Options{Corpus: retrieval.DefaultOptions(), WindowSize: 5})
	sess, err := registry.Create(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	jobStore := &MockJobStore{}
	return &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
		MessageStore:      messages,
		Sessions:          registry,
	}, jobStore, sess
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorkerPool_Flow(t *testing.T) {
	jobSvc, jobStore, sess := newTestJobService(t)
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	atomic.StoreInt64(&currentWorkerCount, 0)
	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) >= 1 })
	})

	t.Run("Jobs are routed by type", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "q-1", SessionId: sess.Id, JobType: jobModel.JobTypeQuery}
		jobSvc.JobChannel <- jobModel.Job{Id: "i-1", SessionId: sess.Id, JobType: jobModel.JobTypeIngest}
		jobSvc.JobChannel <- jobModel.Job{Id: "s-1", SessionId: sess.Id, JobType: jobModel.JobTypeSummarize}
		jobSvc.JobChannel <- jobModel.Job{Id: "r-1", SessionId: sess.Id, JobType: jobModel.JobTypeReanalyze}

		waitFor(t, func() bool {
			return atomic.LoadInt32(&mockRag.Queries) == 1 && atomic.LoadInt32(&mockRag.Ingests) == 1 &&
				atomic.LoadInt32(&mockRag.Summaries) == 1 && atomic.LoadInt32(&mockRag.Reanalyzes) == 1
		})
		waitFor(t, func() bool {
			j, ok := jobStore.GetJob(context.Background(), "r-1")
			return ok && j.Status == jobModel.JobStatusComplete
		})
	})

	t.Run("Unknown session fails the job", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "ghost", SessionId: "missing", JobType: jobModel.JobTypeQuery}
		waitFor(t, func() bool {
			j, ok := jobStore.GetJob(context.Background(), "ghost")
			return ok && j.Status == jobModel.JobStatusError
		})
		j, _ := jobStore.GetJob(context.Background(), "ghost")
		if j.Error.Code != 404 {
			t.Errorf("expected 404, got %d", j.Error.Code)
		}
	})

	t.Run("Failed job keeps error status", func(t *testing.T) {
		mockRag.OnQuery = func(j jobModel.Job) jobModel.Job {
			j.Status = jobModel.JobStatusError
			j.Error = rag.ClassifyError(commonModels.Upstream("generation", context.Canceled))
			return j
		}
		jobSvc.JobChannel <- jobModel.Job{Id: "q-err", SessionId: sess.Id, JobType: jobModel.JobTypeQuery}
		waitFor(t, func() bool {
			j, ok := jobStore.GetJob(context.Background(), "q-err")
			return ok && j.Status == jobModel.JobStatusError && !j.EndTime.IsZero()
		})
		j, _ := jobStore.GetJob(context.Background(), "q-err")
		if !j.Error.Retry || j.Error.Code != 503 {
			t.Errorf("unexpected job error %+v", j.Error)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	previousIdle, previousMin := idleTimeout, atomic.LoadInt64(&minWorkerCount)
	idleTimeout = 20 * time.Millisecond
	atomic.StoreInt64(&minWorkerCount, 0)
	t.Cleanup(func() {
		idleTimeout = previousIdle
		atomic.StoreInt64(&minWorkerCount, previousMin)
	})

	atomic.StoreInt64(&currentWorkerCount, 0)
	jobSvc := &job.Service{JobChannel: make(chan jobModel.Job)}
	_jobService = jobSvc
	_ragService = &MockRagService{}

	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stopWorkerChannel = make(chan bool)

	createWorker()

	waitFor(t, func() bool { return atomic.LoadInt64(&currentWorkerCount) == 0 })
	wg.Wait()
}
