package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/ResumeRAG/internal/app"
	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/internal/mcpServer"
	"github.com/akolanti/ResumeRAG/internal/tools"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML settings file")
	flag.Parse()

	// stdout carries the protocol, so logs go to stderr
	logger_i.InitTo(os.Stderr, os.Getenv("LOG_LEVEL"))
	logger := logger_i.NewLogger("mcp-main")

	settings, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	config.Set(settings)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, settings)
	if err != nil {
		logger.Error("Could not start services", "error", err)
		os.Exit(1)
	}
	defer services.Close(context.Background())

	// a session holding only the base corpus backs the profile tool
	profile, err := services.Sessions.Create(ctx)
	if err != nil {
		logger.Error("Could not open the profile session", "error", err)
		os.Exit(1)
	}

	server, err := mcpServer.NewServer(tools.New(ctx, settings.Tools, profile.Corpus))
	if err != nil {
		logger.Error("Could not create MCP server", "error", err)
		os.Exit(1)
	}
	if err = server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
