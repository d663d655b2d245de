package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/internal/rag/llm"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

// Service is what the worker and the handlers call. It never holds session
// state itself: every call names the session it works on.
//
// The job methods wrap the typed methods, record progress on the job and
// turn errors into a JobError.
type Service interface {
	Ask(ctx context.Context, sess *session.Session, question string) (AskResult, error)
	Ingest(ctx context.Context, sess *session.Session, sourceLabel, rawText string) (commonModels.DocumentInfo, error)
	Summary(ctx context.Context, sess *session.Session, documentId string) (string, error)
	Reanalyze(ctx context.Context, sess *session.Session, documentId string) (commonModels.DocumentInfo, error)

	ProcessRequest(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job
	SummarizeDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job
	ReanalyzeDocument(ctx context.Context, job jobModel.Job, sess *session.Session) jobModel.Job
}

// AskResult is a produced answer. Turn is nil when nothing was appended to
// the conversation, which is the case for the no-documents answer.
type AskResult struct {
	Answer  string
	Scope   commonModels.ScopeDecision
	Sources []string
	Turn    *commonModels.ConversationTurn
}

type Options struct {
	AskTimeout        time.Duration
	IngestTimeout     time.Duration
	AnswerTemperature float64
	SummaryMaxChars   int
}

func DefaultOptions() Options {
	return Options{
		AskTimeout:        config.AskTimeout,
		IngestTimeout:     config.IngestTimeout,
		AnswerTemperature: config.AnswerTemperature,
		SummaryMaxChars:   config.MetadataMaxInputChars,
	}
}

type service struct {
	llmProvider llm.Provider
	ingestor    *ingest.Ingestor
	opts        Options
	logger      *logger_i.Logger
}

// NewService wires the orchestrator. provider may be nil: asking and
// summarising then fail with ErrCollaboratorUnavailable while ingestion
// still works on the heuristic path.
func NewService(provider llm.Provider, ingestor *ingest.Ingestor, opts Options) Service {
	return &service{
		llmProvider: provider,
		ingestor:    ingestor,
		opts:        opts,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

type stepFunc func(jobModel.InternalStatus)

func noStep(jobModel.InternalStatus) {}

func (s *service) Ask(ctx context.Context, sess *session.Session, question string) (AskResult, error) {
	return s.ask(ctx, sess, question, noStep)
}

// ask classifies, retrieves, generates and only then records the turn. A
// cancelled or failed generation leaves the conversation untouched.
func (s *service) ask(ctx context.Context, sess *session.Session, question string, step stepFunc) (AskResult, error) {
	log := s.logger.WithTrace(ctx).With("sessionId", sess.Id)
	if strings.TrimSpace(question) == "" {
		return AskResult{}, commonModels.ErrEmptyQuestion
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.AskTimeout)
	defer cancel()

	if sess.Corpus.Len() == 0 {
		log.Info("question asked against an empty corpus")
		return AskResult{Answer: llm.NoDocumentsAnswer, Scope: commonModels.Ambiguous()}, nil
	}

	step(jobModel.ClassifyCall)
	scope := sess.Corpus.ClassifyQuestion(question)
	metrics.CountQuestionScope(string(scope.Kind))
	log.Debug("question classified", "scope", scope.Kind, "documentId", scope.DocumentId, "reason", scope.Reason)

	step(jobModel.VectorDBCall)
	result, err := s.executeSearchStep(ctx, sess, question, scope)
	if err != nil {
		return AskResult{Scope: scope}, err
	}

	step(jobModel.MemoryCall)
	history, err := sess.Memory.Window(ctx)
	if err != nil {
		return AskResult{Scope: scope}, fmt.Errorf("read conversation: %w", err)
	}

	step(jobModel.LLMCall)
	answer, err := s.executeLLMStep(ctx, llm.Request{
		System:      llm.AnswerSystem,
		History:     history,
		Prompt:      llm.AnswerPrompt(sess.Corpus.BuildContext(result), question),
		Temperature: s.opts.AnswerTemperature,
	})
	if err != nil {
		return AskResult{Scope: scope}, err
	}
	if err = ctx.Err(); err != nil {
		return AskResult{Scope: scope}, err
	}

	turn, err := sess.Memory.Append(ctx, question, answer)
	if err != nil {
		return AskResult{Scope: scope}, fmt.Errorf("record turn: %w", err)
	}
	log.Info("question answered", "scope", scope.Kind, "hits", len(result.Hits), "seq", turn.Seq)
	return AskResult{Answer: answer, Scope: scope, Sources: result.Sources(), Turn: &turn}, nil
}

func (s *service) Ingest(ctx context.Context, sess *session.Session, sourceLabel, rawText string) (commonModels.DocumentInfo, error) {
	return s.ingest(ctx, sess, sourceLabel, rawText, noStep)
}

func (s *service) ingest(ctx context.Context, sess *session.Session, sourceLabel, rawText string, step stepFunc) (commonModels.DocumentInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.IngestTimeout)
	defer cancel()

	step(jobModel.IngestProcessing)
	start := time.Now()
	record, err := s.ingestor.Ingest(ctx, rawText, sourceLabel)
	metrics.CaptureExecutionMetrics("document_analysis", time.Since(start))
	if err != nil {
		return commonModels.DocumentInfo{}, err
	}

	step(jobModel.IngestIndexing)
	stored, err := sess.Corpus.AddDocument(ctx, record)
	if err != nil {
		return commonModels.DocumentInfo{}, err
	}
	metrics.CountIngestedDocument(string(stored.Validity.Reason))
	return stored.Info(), nil
}

// Summary asks the generation collaborator for a write-up of one document.
func (s *service) Summary(ctx context.Context, sess *session.Session, documentId string) (string, error) {
	summary, err := sess.Corpus.Summarize(documentId)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.AskTimeout)
	defer cancel()
	return s.executeLLMStep(ctx, llm.Request{
		System:      llm.SummarySystem,
		Prompt:      llm.SummaryPrompt(summary, s.opts.SummaryMaxChars),
		Temperature: s.opts.AnswerTemperature,
	})
}

// Reanalyze regenerates the metadata of a valid document. The id, text and
// chunks stay as they are.
func (s *service) Reanalyze(ctx context.Context, sess *session.Session, documentId string) (commonModels.DocumentInfo, error) {
	record, err := sess.Corpus.Document(documentId)
	if err != nil {
		return commonModels.DocumentInfo{}, err
	}
	if !record.Validity.Valid {
		return commonModels.DocumentInfo{}, fmt.Errorf("document %s: %w", documentId, commonModels.ErrNotExpectedDocumentType)
	}
	if s.llmProvider == nil {
		return commonModels.DocumentInfo{}, fmt.Errorf("metadata extraction: %w", commonModels.ErrCollaboratorUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.IngestTimeout)
	defer cancel()

	meta, err := s.ingestor.RequestMetadata(ctx, record.RawText)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return commonModels.DocumentInfo{}, ctxErr
	}
	if err != nil {
		return commonModels.DocumentInfo{}, err
	}
	if meta.IsEmpty() {
		s.logger.WithTrace(ctx).Warn("reanalysis produced no metadata, keeping the stored fields", "documentId", documentId)
		return record.Info(), nil
	}
	return sess.Corpus.UpdateMetadata(documentId, meta, ingest.DisplayName(meta, record.SourceLabel))
}
