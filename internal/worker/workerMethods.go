package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/ResumeRAG/internal/config"
	jobmodel "github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/internal/rag"
	"github.com/akolanti/ResumeRAG/internal/session"
)

// jobTimeout bounds a whole job. The orchestrator applies its own, shorter
// timeouts to the ask and ingest steps.
const jobTimeout = 2 * time.Minute

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()
	log := logger.With("traceId", job.TraceId, "jobId", job.Id, "jobType", job.JobType)
	log.Debug("Processing job")

	job.Status = jobmodel.JobStatusRunning
	saveJobState(ctx, job)

	sess, err := _jobService.Sessions.Get(job.SessionId)
	if err != nil {
		log.Warn("session is gone", "sessionId", job.SessionId)
		job.Error = rag.ClassifyError(err)
		job.Status = jobmodel.JobStatusError
		job.CurrentStep = jobmodel.Error
	} else {
		job = runJob(ctx, job, sess)
	}

	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}
	job.EndTime = time.Now()
	saveJobState(ctx, job)
	log.Info("Job finished", "status", job.Status, "elapsed", time.Since(start))
}

func runJob(ctx context.Context, job jobmodel.Job, sess *session.Session) jobmodel.Job {
	switch job.JobType {
	case jobmodel.JobTypeIngest:
		return _ragService.IngestDocument(ctx, job, sess)
	case jobmodel.JobTypeSummarize:
		return _ragService.SummarizeDocument(ctx, job, sess)
	case jobmodel.JobTypeReanalyze:
		return _ragService.ReanalyzeDocument(ctx, job, sess)
	default:
		return _ragService.ProcessRequest(ctx, job, sess)
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

// saveJobState uses a fresh context so a timed out job can still record its
// final state.
func saveJobState(ctx context.Context, job jobmodel.Job) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := _jobService.JobStore.SaveJob(saveCtx, job); err != nil {
		logger.Error("Failed to update job status", "jobId", job.Id, "err", err)
	}
}
