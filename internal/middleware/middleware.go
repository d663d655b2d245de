package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/ResumeRAG/internal/handlers"
	"github.com/akolanti/ResumeRAG/internal/metrics"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

var logMW = logger_i.NewLogger("middleware")

var GetHandler = Wrap(handlers.GetHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)

var CreateSessionHandler = Wrap(handlers.CreateSessionHandler)
var DeleteSessionHandler = Wrap(handlers.DeleteSessionHandler)
var ResetSessionHandler = Wrap(handlers.ResetSessionHandler)
var HistoryHandler = Wrap(handlers.HistoryHandler)
var ClearHistoryHandler = Wrap(handlers.ClearHistoryHandler)

var ChatHandler = Wrap(handlers.ChatHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler)
var GetDocumentHandler = Wrap(handlers.GetDocumentHandler)
var DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler)
var SummaryJobHandler = Wrap(handlers.SummaryJobHandler)
var ReanalyzeJobHandler = Wrap(handlers.ReanalyzeJobHandler)
var SkillSearchHandler = Wrap(handlers.SkillSearchHandler)

// Wrap runs trace injection, auth and rate limiting ahead of next, and
// records the response code against the route pattern.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := processRequest(requestResponseStruct{req: r, writer: rec, logger: logMW})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routeOf(r), strconv.Itoa(rec.Status)).Inc()
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	steps := []func(requestResponseStruct) requestResponseStruct{injectTrace, authenticate, rateLimiter}
	for _, step := range steps {
		re = step(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	return re
}

// routeOf keeps the metric label set bounded by the registered routes.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
