package handlers

import (
	"net/http"
	"strings"

	"github.com/akolanti/ResumeRAG/internal/api"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
)

// ListDocumentsHandler godoc
// @Summary      List documents
// @Description  Lists the session's documents in insertion order, base documents included.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Success      200        {object}  api.DocumentListResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	docs := sess.Corpus.Documents()
	writeJsonResponse(w, http.StatusOK, api.DocumentListResponse{
		SessionId: sess.Id,
		Count:     len(docs),
		Documents: docs,
	})
}

// GetDocumentHandler godoc
// @Summary      Inspect a document
// @Description  Returns the raw text, chunks, metadata and validity of one document.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Param        docId      path      string  true  "Document ID"
// @Success      200        {object}  commonModels.DocumentSummary
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/documents/{docId} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	summary, err := sess.Corpus.Summarize(docIdOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, summary)
}

// DeleteDocumentHandler godoc
// @Summary      Remove a document
// @Tags         Documents
// @Security     BearerAuth
// @Param        sessionId  path  string  true  "Session ID"
// @Param        docId      path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/documents/{docId} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.Corpus.RemoveDocument(r.Context(), docIdOf(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SummaryJobHandler godoc
// @Summary      Summarize a document
// @Description  Queues an LLM summary of one document.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Param        docId      path      string  true  "Document ID"
// @Success      202        {object}  api.InitJobResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/documents/{docId}/summary [post]
func SummaryJobHandler(w http.ResponseWriter, r *http.Request) {
	queueDocumentJob(w, r, jobModel.JobTypeSummarize)
}

// ReanalyzeJobHandler godoc
// @Summary      Re-extract document metadata
// @Description  Queues a fresh metadata extraction for one document.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Param        docId      path      string  true  "Document ID"
// @Success      202        {object}  api.InitJobResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/documents/{docId}/reanalyze [post]
func ReanalyzeJobHandler(w http.ResponseWriter, r *http.Request) {
	queueDocumentJob(w, r, jobModel.JobTypeReanalyze)
}

func queueDocumentJob(w http.ResponseWriter, r *http.Request, jobType jobModel.JobType) {
	if !validateContext(r.Context()) {
		return
	}
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	record, ok := documentFromRequest(w, r, sess)
	if !ok {
		return
	}
	queueJob(w, r, newJobData{
		sessionId:  sess.Id,
		jobType:    jobType,
		documentId: record.Id,
	})
}

// SkillSearchHandler godoc
// @Summary      Find candidates by skill
// @Description  Case-insensitive match against the extracted skills of valid documents.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Param        skill      query     string  true  "Skill name"
// @Success      200        {object}  api.SkillSearchResponse
// @Failure      400        {object}  api.JobResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/skills [get]
func SkillSearchHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	skill := strings.TrimSpace(r.URL.Query().Get("skill"))
	if skill == "" {
		WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "skill is required")
		return
	}
	candidates := sess.Corpus.FindCandidatesWithSkill(skill)
	if candidates == nil {
		candidates = []commonModels.DocumentInfo{}
	}
	writeJsonResponse(w, http.StatusOK, api.SkillSearchResponse{Skill: skill, Candidates: candidates})
}
