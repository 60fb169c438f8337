package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tb0hdan/secscan-mcp/pkg/scan"
	"github.com/tb0hdan/secscan-mcp/pkg/storage"
)

// Server is the MCP server together with what its tools share: the history
// store and the scan runner.
type Server struct {
	*mcp.Server
	storage storage.Storage
	runner  *scan.Runner
}

func NewServer(impl *mcp.Implementation, store storage.Storage, runner *scan.Runner) *Server {
	return &Server{
		Server:  mcp.NewServer(impl, nil),
		storage: store,
		runner:  runner,
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) Runner() *scan.Runner {
	return s.runner
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
