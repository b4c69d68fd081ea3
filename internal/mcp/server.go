// Package mcp exposes the studio over the Model Context Protocol so an
// assistant can inspect and edit a story through tool calls.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"zenstudio/internal/logging"
	"zenstudio/internal/studio"
)

type Server struct {
	session *studio.Session
	logger  *slog.Logger
	mcp     *sdk.Server
}

func NewServer(session *studio.Session, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		session: session,
		logger:  logging.NewComponentLogger(logger, "mcp"),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "zenstudio",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.logger.Info("mcp server starting")
	return s.mcp.Run(ctx, transport)
}
