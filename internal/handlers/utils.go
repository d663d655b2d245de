package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/ResumeRAG/internal/adapter"
	"github.com/akolanti/ResumeRAG/internal/adapter/utils"
	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/rag"
	"github.com/akolanti/ResumeRAG/internal/session"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left but to log
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}

func traceOf(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// writeServiceError reports a failed synchronous operation with the same
// code mapping jobs use.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	jobError := rag.ClassifyError(err)
	log := logRH.WithTrace(r.Context()).With("path", r.URL.Path, "code", jobError.Code)
	if jobError.Code >= http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Debug("request rejected", "error", err)
	}
	writeJsonResponse(w, jobError.Code, adapter.ToErrorResponse(jobError))
}

func sessionIdOf(r *http.Request) string { return utils.GetChiURLParam(r, "sessionId") }

func docIdOf(r *http.Request) string { return utils.GetChiURLParam(r, "docId") }

// sessionFromRequest resolves {sessionId} and writes a 404 when it is unknown.
func sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := sessions().Get(sessionIdOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return sess, true
}

// documentFromRequest resolves {docId} within the session.
func documentFromRequest(w http.ResponseWriter, r *http.Request, sess *session.Session) (commonModels.DocumentRecord, bool) {
	record, err := sess.Corpus.Document(docIdOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return record, false
	}
	return record, true
}

func getTargetDirectory() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}

	targetDir := filepath.Join(root, config.UploadDir)
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", err
	}
	return targetDir, nil
}

// queueJob creates the job and answers 202 with its status URL.
func queueJob(w http.ResponseWriter, request *http.Request, data newJobData) {
	data.id = utils.GetNewUUID()
	data.traceId = traceOf(request.Context())
	CreateNewJob(data)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(data.id))
}
