package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/job"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/session"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}
		logJH.Info("Starting job handler")
	})
}

type newJobData struct {
	id           string
	sessionId    string
	traceId      string
	jobType      jobModel.JobType
	message      string
	documentId   string
	documentName string
	documentPath string
}

// CreateNewJob records the job as queued, so its status is visible at once,
// then hands it to the worker pool.
func CreateNewJob(newJob newJobData) jobModel.Job {
	log := logJH.With("traceId", newJob.traceId, "jobId", newJob.id, "jobType", newJob.jobType)
	log.Debug("Creating new job")

	_job := jobModel.Job{
		Id:          newJob.id,
		SessionId:   newJob.sessionId,
		TraceId:     newJob.traceId,
		JobType:     newJob.jobType,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
	}

	switch newJob.jobType {
	case jobModel.JobTypeIngest:
		_job.CurrentStep = jobModel.IngestInit
		_job.JobPayload.IngestFileName = newJob.documentName
		_job.JobPayload.IngestFilePath = newJob.documentPath
	case jobModel.JobTypeSummarize, jobModel.JobTypeReanalyze:
		_job.CurrentStep = jobModel.UserQueryInit
		_job.JobPayload.DocumentId = newJob.documentId
	default:
		_job.CurrentStep = jobModel.UserQueryInit
		_job.JobPayload.Question = newJob.message
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := handlerInstance.service.JobStore.SaveJob(ctx, _job); err != nil {
		log.Error("Could not record queued job", "error", err)
	}
	handlerInstance.pushToJobChannel(_job)
	return _job
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func sessions() *session.Registry {
	return handlerInstance.service.Sessions
}

// private methods
func (h *JobHandler) pushToJobChannel(_job jobModel.Job) {
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send keeps the system from being overwhelmed
	logJH.Debug("Queued job", "jobId", _job.Id)

	// a new worker every few requests, and for every ingestion since those
	// make several external calls; idle workers retire on their own
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		select {
		case h.service.DispatcherChannel <- true:
		default:
			// a signal is already pending
		}
	}
}
