// @title           Resume RAG API
// @version         1.0
// @description     Session scoped question answering over uploaded resumes and a pinned base profile.
// @termsOfService  http://swagger.io/terms/

// @contact.name    akolanti

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akolanti/ResumeRAG/internal/app"
	"github.com/akolanti/ResumeRAG/internal/config"
	jobmodel "github.com/akolanti/ResumeRAG/internal/domain/jobModel"
	"github.com/akolanti/ResumeRAG/internal/handlers"
	"github.com/akolanti/ResumeRAG/internal/job"
	"github.com/akolanti/ResumeRAG/internal/middleware"
	"github.com/akolanti/ResumeRAG/internal/server"
	"github.com/akolanti/ResumeRAG/internal/worker"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/joho/godotenv"
)

var (
	listenAddr        string
	configPath        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML settings file")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the settings file")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		settings.Service.ListenAddr = listenAddr
	}
	config.Set(settings)

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	services, err := app.Build(serviceContext, settings)
	if err != nil {
		logger.Error("Could not start services", "error", err)
		os.Exit(1)
	}

	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          services.JobStore,
		MessageStore:      services.MessageStore,
		Sessions:          services.Sessions,
	})
	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, services.RAG)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)
	go middleware.PruneLimiters(stopWorkerChannel, 10*time.Minute)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices: func(ctx context.Context) {
			services.Close(ctx)
			closeExternalServices()
		},
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.Service.ListenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
