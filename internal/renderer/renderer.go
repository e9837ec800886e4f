// Package renderer keeps a local, optimistically updated copy of one case's
// comments and draws it as an indented thread.
package renderer

import (
	"CaseComments/internal/mention"
	"CaseComments/internal/models"
	"CaseComments/internal/thread"
	"context"
	"errors"
	"fmt"
	"github.com/charmbracelet/lipgloss"
	"io"
	"strings"
)

// Backend is the comment store as seen from the client.
type Backend interface {
	List(ctx context.Context, caseID string) ([]*models.Comment, error)
	Create(ctx context.Context, req models.CommentRequest) (*models.Comment, error)
	Update(ctx context.Context, id string, req models.UpdateRequest) (*models.Comment, error)
	Delete(ctx context.Context, id, author string) error
}

// Thread is the local view of a case discussion. Failed calls never touch
// Comments; they only set Err.
type Thread struct {
	CaseID     string
	Author     string
	Comments   []*models.Comment
	Err        string
	Candidates []string

	backend       Backend
	editingID     string
	pendingDelete string
}

func NewThread(backend Backend, caseID, author string, candidates []string) *Thread {
	return &Thread{
		CaseID:     caseID,
		Author:     author,
		Comments:   []*models.Comment{},
		Candidates: candidates,
		backend:    backend,
	}
}

func (t *Thread) Load(ctx context.Context) error {
	comments, err := t.backend.List(ctx, t.CaseID)
	if err != nil {
		t.Err = describe(err)
		return err
	}
	t.Comments = comments
	t.Err = ""
	return nil
}

// Post creates a comment (or a reply when parentID is set) and appends the
// stored record locally without refetching.
func (t *Thread) Post(ctx context.Context, content string, parentID *string, attachments []models.Attachment) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		t.Err = "Comment cannot be empty"
		return nil, &models.ValidationError{Message: t.Err}
	}
	created, err := t.backend.Create(ctx, models.CommentRequest{
		CaseID:      t.CaseID,
		Author:      t.Author,
		Content:     content,
		ParentID:    parentID,
		Attachments: attachments,
	})
	if err != nil {
		t.Err = describe(err)
		return nil, err
	}
	t.Comments = append(t.Comments, created)
	t.Err = ""
	return created, nil
}

func (t *Thread) BeginEdit(id string) error {
	c := t.find(id)
	if c == nil {
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	if c.Author != t.Author {
		return fmt.Errorf("comment %s: %w", id, models.ErrForbidden)
	}
	t.editingID = id
	return nil
}

func (t *Thread) Editing() string {
	return t.editingID
}

func (t *Thread) CancelEdit() {
	t.editingID = ""
}

// SaveEdit sends the new content for the comment being edited. The local
// revision is sent along so a concurrent edit elsewhere is reported, not overwritten.
func (t *Thread) SaveEdit(ctx context.Context, content string) error {
	if t.editingID == "" {
		return errors.New("no comment is being edited")
	}
	if strings.TrimSpace(content) == "" {
		t.Err = "Comment cannot be empty"
		return &models.ValidationError{Message: t.Err}
	}
	current := t.find(t.editingID)
	if current == nil {
		id := t.editingID
		t.editingID = ""
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}

	revision := current.Revision
	updated, err := t.backend.Update(ctx, current.ID, models.UpdateRequest{
		Author:   t.Author,
		Content:  content,
		Revision: &revision,
	})
	if err != nil {
		t.Err = describe(err)
		return err
	}
	t.replace(updated)
	t.editingID = ""
	t.Err = ""
	return nil
}

// RequestDelete arms deletion of id; ConfirmDelete performs it.
func (t *Thread) RequestDelete(id string) error {
	c := t.find(id)
	if c == nil {
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	if c.Author != t.Author {
		return fmt.Errorf("comment %s: %w", id, models.ErrForbidden)
	}
	t.pendingDelete = id
	return nil
}

func (t *Thread) PendingDelete() string {
	return t.pendingDelete
}

func (t *Thread) CancelDelete() {
	t.pendingDelete = ""
}

func (t *Thread) ConfirmDelete(ctx context.Context, id string) error {
	if t.pendingDelete == "" || t.pendingDelete != id {
		return errors.New("delete was not requested for this comment")
	}
	if err := t.backend.Delete(ctx, id, t.Author); err != nil {
		t.Err = describe(err)
		return err
	}
	kept := t.Comments[:0]
	for _, c := range t.Comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	t.Comments = kept
	t.pendingDelete = ""
	t.Err = ""
	return nil
}

// Suggest returns mention candidates for the @word before caret, if any.
func (t *Thread) Suggest(text string, caret int) []string {
	m, ok := mention.Detect(text, caret)
	if !ok {
		return nil
	}
	return mention.Suggest(m.Query, t.Candidates)
}

func (t *Thread) Nodes() []*models.CommentNode {
	return thread.Build(t.Comments)
}

// Replies returns the direct replies to id.
func (t *Thread) Replies(id string) []*models.Comment {
	return thread.Children(t.Comments, id)
}

var (
	authorStyle = lipgloss.NewStyle().Bold(true)
	metaStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Render writes the threaded view, replies indented under their parent.
func (t *Thread) Render(w io.Writer) error {
	var b strings.Builder
	nodes := t.Nodes()
	if len(nodes) == 0 {
		b.WriteString(metaStyle.Render("No comments yet.") + "\n")
	}
	thread.Walk(nodes, func(n *models.CommentNode, depth int) {
		indent := strings.Repeat("  ", depth)
		meta := n.CreatedAt.Local().Format("2006-01-02 15:04")
		if n.Edited {
			meta += " (edited)"
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", indent, authorStyle.Render(n.Author), metaStyle.Render(meta), metaStyle.Render(shortID(n.ID)))
		for _, line := range strings.Split(n.Content, "\n") {
			fmt.Fprintf(&b, "%s  %s\n", indent, line)
		}
		for _, a := range n.Attachments {
			fmt.Fprintf(&b, "%s  %s\n", indent, metaStyle.Render("[attachment] "+a.Name))
		}
	})
	if hidden := len(thread.Orphans(t.Comments)); hidden > 0 {
		b.WriteString(metaStyle.Render(fmt.Sprintf("%d replies hidden, their parent was deleted", hidden)) + "\n")
	}
	if t.Err != "" {
		b.WriteString(errorStyle.Render(t.Err) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Thread) find(id string) *models.Comment {
	for _, c := range t.Comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (t *Thread) replace(updated *models.Comment) {
	for i, c := range t.Comments {
		if c.ID == updated.ID {
			t.Comments[i] = updated
			return
		}
	}
}

func describe(err error) string {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.Is(err, models.ErrForbidden):
		return "You can only change your own comments"
	case errors.Is(err, models.ErrNotFound):
		return "Comment no longer exists"
	case errors.Is(err, models.ErrConflict):
		return "Comment was changed elsewhere, reload to see the latest version"
	default:
		return "Something went wrong, please try again"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + id[:8]
	}
	return "#" + id
}
