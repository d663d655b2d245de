package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit    InternalStatus = "Init"
	ClassifyCall     InternalStatus = "Classify"
	RAGCall          InternalStatus = "RAG"
	LLMCall          InternalStatus = "LLM"
	VectorDBCall     InternalStatus = "VectorDB"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	MemoryCall       InternalStatus = "Memory"

	IngestInit       InternalStatus = "IngestInit"
	IngestExtracting InternalStatus = "IngestExtracting"
	IngestProcessing InternalStatus = "IngestProcessing"
	IngestIndexing   InternalStatus = "IngestIndexing"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeQuery     JobType = "Query"
	JobTypeIngest    JobType = "Ingest"
	JobTypeSummarize JobType = "Summarize"
	JobTypeReanalyze JobType = "Reanalyze"
)

type Job struct {
	Id          string         `json:"id"`
	SessionId   string         `json:"session_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question string                      `json:"question,omitempty"`
	Answer   string                      `json:"answer,omitempty"`
	Sources  []string                    `json:"sources,omitempty"`
	Scope    *commonModels.ScopeDecision `json:"scope,omitempty"`

	DocumentId     string                     `json:"document_id,omitempty"`
	IngestFileName string                     `json:"ingest_file_name,omitempty"`
	IngestFilePath string                     `json:"-"`
	Document       *commonModels.DocumentInfo `json:"document,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// MessageStore keeps the full, ordered turn log of every session.
// AppendTurn assigns the sequence number.
type MessageStore interface {
	ValidateChatId(ctx context.Context, id string) bool
	InitNewChat(ctx context.Context, id string) error
	AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) (commonModels.ConversationTurn, error)
	RecentTurns(ctx context.Context, id string, n int) ([]commonModels.ConversationTurn, error)
	AllTurns(ctx context.Context, id string) ([]commonModels.ConversationTurn, error)
	ClearChat(ctx context.Context, id string) error
	DeleteChat(ctx context.Context, id string) error
}
