package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"net/url"
	"strings"
)

const caseCommentsPrefix = "casecomments://cases/"

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: caseCommentsPrefix + "{case}/comments",
		Name:        "Case Comments",
		Description: "All comments on a case, oldest first",
		MIMEType:    "application/json",
	}, s.handleCaseCommentsResource)
}

func (s *Server) handleCaseCommentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	caseID, err := caseFromURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	comments, err := s.svc.List(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(comments, "", "  ")
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func caseFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, caseCommentsPrefix)
	if !ok {
		return "", fmt.Errorf("invalid URI %q", uri)
	}
	escaped, ok := strings.CutSuffix(rest, "/comments")
	if !ok || escaped == "" {
		return "", fmt.Errorf("invalid URI %q", uri)
	}
	return url.PathUnescape(escaped)
}
