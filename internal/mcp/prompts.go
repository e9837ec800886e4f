package mcp

import (
	"context"
	"fmt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "summarize-discussion",
		Description: "Summarize the clinical discussion on a case",
		Arguments: []*mcp.PromptArgument{
			{Name: "case", Description: "Case ID to summarize", Required: true},
		},
	}, s.handleSummarizePrompt)
}

func (s *Server) handleSummarizePrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	caseID := req.Params.Arguments["case"]

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Summarize discussion on case %s", caseID),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf(`Please summarize the discussion on case %s.

First, use the get_thread tool to read the comments, then provide a concise summary of:
1. The clinical question under discussion
2. Opinions given, with who gave them
3. Open questions and agreed next steps`, caseID),
				},
			},
		},
	}, nil
}
