package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/akolanti/ResumeRAG/internal/api"
	"github.com/akolanti/ResumeRAG/internal/data/store"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/job"
	"github.com/akolanti/ResumeRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/ResumeRAG/internal/rag/retrieval"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testJobs   = make(chan jobModel.Job, 32)
	testRouter chi.Router
)

func TestMain(m *testing.M) {
	registry := session.NewRegistry(hashEmbedding.New(64), store.InitMessageStore(), session.FlatIndexFactory(0.3), nil,
		session.Options{Corpus: retrieval.DefaultOptions(), WindowSize: 2})
	InitJobHandler(job.InitJobService(job.ServiceConfig{
		JobChannel:        testJobs,
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
		Sessions:          registry,
	}))

	r := chi.NewRouter()
	r.Get("/status/{id}", GetStatusHandler)
	r.Post("/sessions", CreateSessionHandler)
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Delete("/", DeleteSessionHandler)
		r.Post("/reset", ResetSessionHandler)
		r.Post("/chat", ChatHandler)
		r.Get("/history", HistoryHandler)
		r.Delete("/history", ClearHistoryHandler)
		r.Get("/skills", SkillSearchHandler)
		r.Get("/documents", ListDocumentsHandler)
		r.Get("/documents/{docId}", GetDocumentHandler)
		r.Delete("/documents/{docId}", DeleteDocumentHandler)
		r.Post("/documents/{docId}/summary", SummaryJobHandler)
	})
	testRouter = r

	os.Exit(m.Run())
}

func do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func newSession(t *testing.T) string {
	t.Helper()
	rec := do(t, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[api.SessionResponse](t, rec)
	require.NotEmpty(t, resp.SessionId)
	return resp.SessionId
}

func drainJob(t *testing.T) jobModel.Job {
	t.Helper()
	select {
	case j := <-testJobs:
		return j
	default:
		t.Fatal("no job was queued")
		return jobModel.Job{}
	}
}

func addResume(t *testing.T, sessionId, id, name string, skills ...string) {
	t.Helper()
	sess, err := sessions().Get(sessionId)
	require.NoError(t, err)
	text := name + " builds distributed systems."
	_, err = sess.Corpus.AddDocument(context.Background(), commonModels.DocumentRecord{
		Id:          id,
		SourceLabel: id + ".pdf",
		DisplayName: name,
		Kind:        commonModels.KindResume,
		RawText:     text,
		Chunks:      []commonModels.Chunk{{Index: 0, Text: text, Start: 0, End: len(text)}},
		Metadata:    commonModels.Metadata{Name: name, Skills: skills},
		Validity:    commonModels.Validity{Valid: true, Reason: commonModels.ReasonHeuristicMatch},
	})
	require.NoError(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	id := newSession(t)

	rec := do(t, http.MethodGet, "/sessions/"+id+"/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[api.DocumentListResponse](t, rec).Count)

	rec = do(t, http.MethodDelete, "/sessions/"+id+"/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/documents", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[api.ErrorResponse](t, rec).Error.Code)
}

func TestChatHandler(t *testing.T) {
	id := newSession(t)

	t.Run("queues a query job", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/sessions/"+id+"/chat", `{"message":"Who knows Go?"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		initResp := decode[api.InitJobResponse](t, rec)
		assert.Equal(t, "/status/"+initResp.Id, initResp.StatusURL)

		queued := drainJob(t)
		assert.Equal(t, initResp.Id, queued.Id)
		assert.Equal(t, id, queued.SessionId)
		assert.Equal(t, jobModel.JobTypeQuery, queued.JobType)
		assert.Equal(t, "Who knows Go?", queued.JobPayload.Question)

		status := do(t, http.MethodGet, initResp.StatusURL, "")
		require.Equal(t, http.StatusOK, status.Code)
		assert.Equal(t, string(jobModel.JobStatusQueued), decode[api.JobResponse](t, status).Result.Status)
	})

	t.Run("blank message", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/sessions/"+id+"/chat", `{"message":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		rec := do(t, http.MethodPost, "/sessions/nope/chat", `{"message":"hi"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetStatusHandler_UnknownJob(t *testing.T) {
	rec := do(t, http.MethodGet, "/status/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentHandlers(t *testing.T) {
	id := newSession(t)
	addResume(t, id, "alice", "Alice Johnson", "Go", "Kubernetes")
	addResume(t, id, "bob", "Bob Smith", "Java")

	rec := do(t, http.MethodGet, "/sessions/"+id+"/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[api.DocumentListResponse](t, rec).Count)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/documents/alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[commonModels.DocumentSummary](t, rec)
	assert.Equal(t, "Alice Johnson", summary.DisplayName)
	assert.Len(t, summary.Chunks, 1)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/skills?skill=kubernetes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[api.SkillSearchResponse](t, rec)
	require.Len(t, found.Candidates, 1)
	assert.Equal(t, "alice", found.Candidates[0].Id)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/skills", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, http.MethodPost, "/sessions/"+id+"/documents/bob/summary", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	queued := drainJob(t)
	assert.Equal(t, jobModel.JobTypeSummarize, queued.JobType)
	assert.Equal(t, "bob", queued.JobPayload.DocumentId)

	rec = do(t, http.MethodPost, "/sessions/"+id+"/documents/carol/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, http.MethodDelete, "/sessions/"+id+"/documents/bob", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, http.MethodGet, "/sessions/"+id+"/documents/bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandlers(t *testing.T) {
	id := newSession(t)
	sess, err := sessions().Get(id)
	require.NoError(t, err)
	for _, q := range []string{"one", "two", "three"} {
		_, err := sess.Memory.Append(context.Background(), q, "answer "+q)
		require.NoError(t, err)
	}

	rec := do(t, http.MethodGet, "/sessions/"+id+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	window := decode[api.HistoryResponse](t, rec)
	assert.Equal(t, 2, window.WindowSize)
	require.Len(t, window.Turns, 2)
	assert.Equal(t, "two", window.Turns[0].Question)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/history?all=true", "")
	assert.Len(t, decode[api.HistoryResponse](t, rec).Turns, 3)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/history?n=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, http.MethodDelete, "/sessions/"+id+"/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, http.MethodGet, "/sessions/"+id+"/history?all=true", "")
	assert.Empty(t, decode[api.HistoryResponse](t, rec).Turns)
}

func TestResetSessionHandler(t *testing.T) {
	id := newSession(t)
	addResume(t, id, "alice", "Alice Johnson", "Go")

	rec := do(t, http.MethodPost, "/sessions/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.SessionResponse](t, rec).Documents)
}
