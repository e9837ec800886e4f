// Package mcp exposes the comment service to AI agents over the Model
// Context Protocol.
package mcp

import (
	"CaseComments/internal/models"
	"context"
	"errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	serverName    = "casecomments"
	serverVersion = "1.0.0"
)

type CommentService interface {
	List(ctx context.Context, caseID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, cr models.CommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, id string, ur models.UpdateRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, author string) error
	Threads(ctx context.Context, caseID string) (*models.ThreadView, error)
	SearchComments(ctx context.Context, query string) ([]*models.Comment, error)
}

type Server struct {
	mcp *mcp.Server
	svc CommentService
	log *zap.Logger
}

func NewServer(svc CommentService, log *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("comment service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		svc: svc,
		log: log.Named("mcp"),
	}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s, nil
}

// Serve runs the server on stdin/stdout until ctx is cancelled or the peer disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("Starting MCP server on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
