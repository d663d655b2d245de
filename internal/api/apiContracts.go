package api

import (
	"time"

	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	SessionId string            `json:"session_id,omitempty" example:"0b5c4f0e-7d1e-4c55-9a43-d1b7c0a2d111"`
	JobType   string            `json:"job_type,omitempty" example:"Query"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type RAGResponse struct {
	Question string                      `json:"question,omitempty"`
	Answer   string                      `json:"answer"`
	Sources  []string                    `json:"sources"`
	Scope    *commonModels.ScopeDecision `json:"scope,omitempty"`
}

type Result struct {
	Status              string                     `json:"status"`
	CurrentStep         string                     `json:"current_step,omitempty"`
	RAGExternalResponse *RAGResponse               `json:"rag_response,omitempty"`
	Document            *commonModels.DocumentInfo `json:"document,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type SessionResponse struct {
	SessionId string                      `json:"session_id" example:"0b5c4f0e-7d1e-4c55-9a43-d1b7c0a2d111"`
	CreatedAt time.Time                   `json:"created_at"`
	Documents []commonModels.DocumentInfo `json:"documents"`
}

type DocumentListResponse struct {
	SessionId string                      `json:"session_id"`
	Count     int                         `json:"count"`
	Documents []commonModels.DocumentInfo `json:"documents"`
}

type HistoryResponse struct {
	SessionId  string                          `json:"session_id"`
	WindowSize int                             `json:"window_size"`
	Turns      []commonModels.ConversationTurn `json:"turns"`
}

type SkillSearchResponse struct {
	Skill      string                      `json:"skill"`
	Candidates []commonModels.DocumentInfo `json:"candidates"`
}

type ErrorResponse struct {
	Error JobOutgoingError `json:"error"`
}

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type IngestDocumentRequest struct {
	DocumentName string `json:"document_name" validate:"required"`
}
