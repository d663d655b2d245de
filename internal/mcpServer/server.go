package mcpServer

import (
	"context"
	"errors"

	"github.com/akolanti/ResumeRAG/internal/tools"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

var ErrMissingToolbox = errors.New("toolbox is required")

var logger = logger_i.NewLogger("mcp")

type Server struct {
	tools  *tools.Toolbox
	server *mcp.Server
}

func NewServer(toolbox *tools.Toolbox) (*Server, error) {
	if toolbox == nil {
		return nil, ErrMissingToolbox
	}
	s := &Server{
		tools:  toolbox,
		server: mcp.NewServer(&mcp.Implementation{Name: "resume-rag", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
