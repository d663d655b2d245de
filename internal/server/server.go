package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/ResumeRAG/internal/adapter/utils"
	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/middleware"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    func(ctx context.Context)
}

// Routes registers the API on r.
func Routes(r chi.Router) {
	r.Get("/health", middleware.GetHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)

	r.Post("/sessions", middleware.CreateSessionHandler)
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Delete("/", middleware.DeleteSessionHandler)
		r.Post("/reset", middleware.ResetSessionHandler)
		r.Post("/chat", middleware.ChatHandler)

		r.Get("/history", middleware.HistoryHandler)
		r.Delete("/history", middleware.ClearHistoryHandler)
		r.Get("/skills", middleware.SkillSearchHandler)

		r.Post("/documents", middleware.PostIngestHandler)
		r.Get("/documents", middleware.ListDocumentsHandler)
		r.Get("/documents/{docId}", middleware.GetDocumentHandler)
		r.Delete("/documents/{docId}", middleware.DeleteDocumentHandler)
		r.Post("/documents/{docId}/summary", middleware.SummaryJobHandler)
		r.Post("/documents/{docId}/reanalyze", middleware.ReanalyzeJobHandler)
	})
}

func CreateServer(listenAddr string) {
	r := utils.GetRouter()
	Routes(r.Router)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully", "error", err)
		}

		//close workers before the sessions they use
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices(ctx)
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Shut down gracefully")
	case <-ctx.Done():
		_logger.Warn("Force shut down")
		os.Exit(1)
	}
}
