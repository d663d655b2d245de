package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/ResumeRAG/internal/adapter"
	"github.com/akolanti/ResumeRAG/internal/adapter/utils"
	"github.com/akolanti/ResumeRAG/internal/api"
	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/rag/ingest"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler godoc
// @Summary      Ask a question in a session
// @Description  Queues a question against the session's documents and conversation. Poll the returned status URL for the answer.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string               true  "Session ID"
// @Param        request    body      api.ChatRequest      true  "Question"
// @Success      202        {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400        {object}  api.JobResponse      "Empty or malformed question"
// @Failure      404        {object}  api.ErrorResponse    "Session not found"
// @Router       /sessions/{sessionId}/chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request", "remoteAddr", request.RemoteAddr)
		return
	}
	sess, ok := sessionFromRequest(w, request)
	if !ok {
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the chat request body", "error", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || strings.TrimSpace(requestData.Message) == "" {
		logRH.WithTrace(request.Context()).Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "message is required")
		return
	}

	queueJob(w, request, newJobData{
		sessionId: sess.Id,
		jobType:   jobModel.JobTypeQuery,
		message:   requestData.Message,
	})
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceOf(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// PostIngestHandler godoc
// @Summary      Upload a document into a session
// @Description  Receives a PDF, DOCX, RTF or TXT file via multipart/form-data, stores it temporarily and queues an ingestion job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId      path      string  true   "Session ID"
// @Param        document_name  formData  string  false  "Label for the document, defaults to the file name"
// @Param        document       formData  file    true   "The file to upload"
// @Success      202  {object}  api.InitJobResponse  "Accepted"
// @Failure      400  {object}  api.JobResponse      "Missing file, unsupported type or file too large"
// @Failure      404  {object}  api.ErrorResponse    "Session not found"
// @Failure      500  {object}  api.JobResponse      "Storage or write error"
// @Router       /sessions/{sessionId}/documents [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request", "remoteAddr", r.RemoteAddr)
		return
	}
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	log := logRH.WithTrace(r.Context()).With("sessionId", sess.Id)

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes)
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	originalName := filepath.Base(fileMetadata.Filename)
	if !ingest.SupportedFile(originalName) {
		WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "Unsupported file type "+filepath.Ext(originalName))
		return
	}
	docName := strings.TrimSpace(r.FormValue("document_name"))
	if docName == "" {
		docName = originalName
	}

	targetDir, err := getTargetDirectory()
	if err != nil {
		log.Error("Couldn't get target directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sess.Id, "Storage error")
		return
	}

	tempFilePath := filepath.Join(targetDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), originalName))
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		log.Error("Couldn't create upload file", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sess.Id, "Storage error")
		return
	}
	_, err = io.Copy(destinationFileWriter, fileReader)
	if closeErr := destinationFileWriter.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		log.Error("Couldn't write upload file", "error", err)
		_ = os.Remove(tempFilePath)
		WriteErrorResponse(w, http.StatusInternalServerError, sess.Id, "Write error")
		return
	}

	queueJob(w, r, newJobData{
		sessionId:    sess.Id,
		jobType:      jobModel.JobTypeIngest,
		documentName: docName,
		documentPath: tempFilePath,
	})
}
