package mcp

import (
	"CaseComments/internal/models"
	"CaseComments/internal/repository"
	"CaseComments/internal/service"
	"context"
	"encoding/json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	svc := service.NewService(repository.NewMemoryRepository(), nil, zap.NewNop())
	server, err := NewServer(svc, zap.NewNop())
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	_, err = server.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestToolsRoundTrip(t *testing.T) {
	session := connect(t)

	out, isErr := call(t, session, "post_comment", map[string]any{"case_id": "C1", "author": "dr.chen", "content": "Start antibiotics"})
	require.False(t, isErr, out)
	var root models.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &root))

	out, isErr = call(t, session, "post_comment", map[string]any{"case_id": "C1", "author": "dr.patel", "content": "Agree", "parent_id": root.ID})
	require.False(t, isErr, out)

	out, isErr = call(t, session, "list_comments", map[string]any{"case_id": "C1"})
	require.False(t, isErr)
	var listed []models.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 2)

	out, isErr = call(t, session, "get_thread", map[string]any{"case_id": "C1"})
	require.False(t, isErr)
	assert.Contains(t, out, "- **dr.chen**")
	assert.Contains(t, out, "  - **dr.patel**")

	out, isErr = call(t, session, "edit_comment", map[string]any{"id": root.ID, "author": "dr.chen", "content": "Start antibiotics today", "revision": 1})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"edited":true`)

	out, isErr = call(t, session, "search_comments", map[string]any{"query": "antibiotics"})
	require.False(t, isErr)
	assert.Contains(t, out, root.ID)

	out, isErr = call(t, session, "delete_comment", map[string]any{"id": root.ID, "author": "dr.chen"})
	require.False(t, isErr)
	assert.Contains(t, out, root.ID)
}

func TestPostCommentWithAttachments(t *testing.T) {
	session := connect(t)

	out, isErr := call(t, session, "post_comment", map[string]any{
		"case_id": "C2",
		"author":  "dr.chen",
		"content": "ECG attached",
		"attachments": []map[string]any{
			{"name": "ecg.pdf", "type": "application/pdf", "url": "https://files.example/ecg.pdf", "size": 2048},
		},
	})
	require.False(t, isErr, out)
	var posted models.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &posted))
	require.Len(t, posted.Attachments, 1)

	out, isErr = call(t, session, "list_comments", map[string]any{"case_id": "C2"})
	require.False(t, isErr)
	var listed []models.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, []models.Attachment{{
		Name: "ecg.pdf",
		Type: "application/pdf",
		URL:  "https://files.example/ecg.pdf",
		Size: 2048,
	}}, listed[0].Attachments)
}

func TestToolErrors(t *testing.T) {
	session := connect(t)

	out, isErr := call(t, session, "post_comment", map[string]any{"case_id": "C1", "author": "", "content": "x"})
	assert.True(t, isErr)
	assert.Equal(t, "caseId, author, and content are required", out)

	out, _ = call(t, session, "post_comment", map[string]any{"case_id": "C1", "author": "dr.chen", "content": "x"})
	var c models.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &c))

	out, isErr = call(t, session, "delete_comment", map[string]any{"id": c.ID, "author": "dr.patel"})
	assert.True(t, isErr)
	assert.Equal(t, "not your comment", out)

	out, isErr = call(t, session, "edit_comment", map[string]any{"id": c.ID, "author": "dr.chen", "content": "y", "revision": 7})
	assert.True(t, isErr)
	assert.Contains(t, out, "changed since")

	out, isErr = call(t, session, "delete_comment", map[string]any{"id": "missing", "author": "dr.chen"})
	assert.True(t, isErr)
	assert.Equal(t, "comment not found", out)
}

func TestCaseResource(t *testing.T) {
	session := connect(t)
	_, isErr := call(t, session, "post_comment", map[string]any{"case_id": "C9", "author": "dr.chen", "content": "note"})
	require.False(t, isErr)

	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "casecomments://cases/C9/comments"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Contains(t, res.Contents[0].Text, `"caseId": "C9"`)
}

func TestSummarizePrompt(t *testing.T) {
	session := connect(t)

	res, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "summarize-discussion",
		Arguments: map[string]string{"case": "C4"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "case C4")
}

func TestCaseFromURI(t *testing.T) {
	id, err := caseFromURI("casecomments://cases/case%207/comments")
	require.NoError(t, err)
	assert.Equal(t, "case 7", id)

	_, err = caseFromURI("casecomments://cases//comments")
	assert.Error(t, err)
	_, err = caseFromURI("bbs://topics")
	assert.Error(t, err)
}
