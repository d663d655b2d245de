package rag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.CurrentStep = jobModel.Complete
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("job progress", "currentStep", job.CurrentStep)
	return job
}

// tracker records progress on the job it points at.
func tracker(job *jobModel.Job, log *logger_i.Logger) stepFunc {
	return func(status jobModel.InternalStatus) {
		*job = logOutput(*job, status, log)
	}
}

func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	s.logger.Error(message, "jobId", job.Id, "step", job.CurrentStep, "error", err)
	job.Error = ClassifyError(err)
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

// ClassifyError maps a failure to the status code and retry hint reported to
// clients. Server-side failures do not leak their message.
func ClassifyError(err error) jobModel.JobError {
	code, retry := http.StatusInternalServerError, false
	switch {
	case errors.Is(err, commonModels.ErrEmptyDocument),
		errors.Is(err, commonModels.ErrEmptyQuestion),
		errors.Is(err, ingest.ErrUnsupportedFile):
		code = http.StatusBadRequest
	case errors.Is(err, commonModels.ErrNotFound),
		errors.Is(err, commonModels.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, commonModels.ErrNotExpectedDocumentType):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, commonModels.ErrCorpusCapacityExhausted):
		code = http.StatusConflict
	case errors.Is(err, commonModels.ErrCollaboratorUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, commonModels.ErrUpstreamUnavailable):
		code, retry = http.StatusServiceUnavailable, true
	case errors.Is(err, context.DeadlineExceeded):
		code, retry = http.StatusGatewayTimeout, true
	}

	message := http.StatusText(code)
	if code < http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		message = err.Error()
	}
	return jobModel.JobError{Code: code, Message: message, Retry: retry}
}

func (s *service) executeSearchStep(ctx context.Context, sess *session.Session, question string, scope commonModels.ScopeDecision) (commonModels.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return sess.Corpus.Search(ctx, question, scope, 0)
}

func (s *service) executeLLMStep(ctx context.Context, request llm.Request) (string, error) {
	if s.llmProvider == nil {
		return "", fmt.Errorf("generation: %w", commonModels.ErrCollaboratorUnavailable)
	}
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	answer, err := s.llmProvider.Generate(ctx, request)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", commonModels.Upstream("generation", err)
	}
	return answer, nil
}

func (s *service) ProcessRequest(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "sessionId", sess.Id)
	job.CurrentStep = jobModel.RAGCall

	result, err := s.ask(ctx, sess, job.JobPayload.Question, tracker(&job, log))
	if result.Scope.Kind != "" {
		job.JobPayload.Scope = &result.Scope
	}
	if err != nil {
		return s.jobError(job, err, "QUERY_FAILURE")
	}
	job.JobPayload.Sources = result.Sources
	return returnOutput(job, result.Answer)
}

// IngestDocument extracts the uploaded file, ingests it and removes the
// temporary file whatever the outcome.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "sessionId", sess.Id)
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	path := job.JobPayload.IngestFilePath
	defer func() {
		if path == "" {
			return
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not remove uploaded file", "path", path, "error", err)
		}
	}()

	job = logOutput(job, jobModel.IngestExtracting, log)
	rawText, docType, err := s.ingestor.ExtractText(path)
	if err != nil {
		return s.jobError(job, err, "EXTRACTION_FAILURE")
	}
	log.Debug("text extracted", "docType", docType, "chars", len(rawText))

	label := job.JobPayload.IngestFileName
	if label == "" {
		label = path
	}
	info, err := s.ingest(ctx, sess, label, rawText, tracker(&job, log))
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE")
	}
	job.JobPayload.DocumentId = info.Id
	job.JobPayload.Document = &info
	job.CurrentStep = jobModel.Complete
	return job
}

func (s *service) SummarizeDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "sessionId", sess.Id)
	job = logOutput(job, jobModel.LLMCall, log)
	summary, err := s.Summary(ctx, sess, job.JobPayload.DocumentId)
	if err != nil {
		return s.jobError(job, err, "SUMMARY_FAILURE")
	}
	job.JobPayload.Sources = []string{job.JobPayload.DocumentId}
	return returnOutput(job, summary)
}

func (s *service) ReanalyzeDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id, "sessionId", sess.Id)
	job = logOutput(job, jobModel.IngestProcessing, log)
	info, err := s.Reanalyze(ctx, sess, job.JobPayload.DocumentId)
	if err != nil {
		return s.jobError(job, err, "REANALYZE_FAILURE")
	}
	job.JobPayload.Document = &info
	job.CurrentStep = jobModel.Complete
	return job
}
