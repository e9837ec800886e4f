package mcp

import (
	"CaseComments/internal/models"
	"CaseComments/internal/thread"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"strings"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_comments",
		Description: "List all comments on a case in creation order",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"case_id":{"type":"string"}},"required":["case_id"]}`),
	}, s.handleListComments)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_thread",
		Description: "Show the discussion on a case as an indented thread",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"case_id":{"type":"string"}},"required":["case_id"]}`),
	}, s.handleGetThread)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "post_comment",
		Description: "Post a comment on a case, or a reply when parent_id is given",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"case_id":{"type":"string"},"author":{"type":"string"},"content":{"type":"string"},"parent_id":{"type":"string"},"attachments":{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"},"type":{"type":"string"},"url":{"type":"string"},"size":{"type":"integer"}},"required":["name"]}}},"required":["case_id","author","content"]}`),
	}, s.handlePostComment)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "edit_comment",
		Description: "Replace the content of your own comment",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"author":{"type":"string"},"content":{"type":"string"},"revision":{"type":"integer","description":"Revision you are editing; rejected if the comment changed since"}},"required":["id","author","content"]}`),
	}, s.handleEditComment)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_comment",
		Description: "Delete your own comment",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"author":{"type":"string"}},"required":["id","author"]}`),
	}, s.handleDeleteComment)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_comments",
		Description: "Search comment content across all cases",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"At least 3 characters"}},"required":["query"]}`),
	}, s.handleSearchComments)
}

func (s *Server) handleListComments(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		CaseID string `json:"case_id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	comments, err := s.svc.List(ctx, args.CaseID)
	if err != nil {
		return s.failed("list_comments", err), nil
	}
	return jsonResult(comments), nil
}

func (s *Server) handleGetThread(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		CaseID string `json:"case_id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	view, err := s.svc.Threads(ctx, args.CaseID)
	if err != nil {
		return s.failed("get_thread", err), nil
	}
	return textResult(formatThread(view)), nil
}

func (s *Server) handlePostComment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		CaseID      string              `json:"case_id"`
		Author      string              `json:"author"`
		Content     string              `json:"content"`
		ParentID    string              `json:"parent_id"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	cr := models.CommentRequest{
		CaseID:      args.CaseID,
		Author:      args.Author,
		Content:     args.Content,
		Attachments: args.Attachments,
	}
	if args.ParentID != "" {
		cr.ParentID = &args.ParentID
	}
	comment, err := s.svc.CreateComment(ctx, cr)
	if err != nil {
		return s.failed("post_comment", err), nil
	}
	return jsonResult(comment), nil
}

func (s *Server) handleEditComment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID       string `json:"id"`
		Author   string `json:"author"`
		Content  string `json:"content"`
		Revision *int   `json:"revision"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	comment, err := s.svc.UpdateComment(ctx, args.ID, models.UpdateRequest{
		Author:   args.Author,
		Content:  args.Content,
		Revision: args.Revision,
	})
	if err != nil {
		return s.failed("edit_comment", err), nil
	}
	return jsonResult(comment), nil
}

func (s *Server) handleDeleteComment(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	if err := s.svc.DeleteComment(ctx, args.ID, args.Author); err != nil {
		return s.failed("delete_comment", err), nil
	}
	return textResult(fmt.Sprintf("Deleted comment %s", args.ID)), nil
}

func (s *Server) handleSearchComments(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(err), nil
	}

	comments, err := s.svc.SearchComments(ctx, args.Query)
	if err != nil {
		return s.failed("search_comments", err), nil
	}
	return jsonResult(comments), nil
}

// failed turns a service error into a tool error the agent can read.
func (s *Server) failed(tool string, err error) *mcp.CallToolResult {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return toolError(validation)
	case errors.Is(err, models.ErrNotFound):
		return toolError(errors.New("comment not found"))
	case errors.Is(err, models.ErrForbidden):
		return toolError(errors.New("not your comment"))
	case errors.Is(err, models.ErrConflict):
		return toolError(errors.New("comment was changed since that revision; list the case again and retry"))
	}
	s.log.Error("Tool call failed", zap.String("tool", tool), zap.Error(err))
	return toolError(errors.New("internal error"))
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(err)
	}
	return textResult(string(data))
}

func formatThread(view *models.ThreadView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Case %s\n\n", view.CaseID)
	if len(view.Threads) == 0 {
		sb.WriteString("No comments yet.\n")
	}
	thread.Walk(view.Threads, func(n *models.CommentNode, depth int) {
		indent := strings.Repeat("  ", depth)
		edited := ""
		if n.Edited {
			edited = " (edited)"
		}
		fmt.Fprintf(&sb, "%s- **%s** %s%s [%s]\n", indent, n.Author, n.CreatedAt.Format("2006-01-02 15:04"), edited, n.ID)
		for _, line := range strings.Split(n.Content, "\n") {
			fmt.Fprintf(&sb, "%s  %s\n", indent, line)
		}
	})
	if view.Orphaned > 0 {
		fmt.Fprintf(&sb, "\n%d replies hidden because their parent was deleted.\n", view.Orphaned)
	}
	return sb.String()
}
