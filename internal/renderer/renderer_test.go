package renderer

import (
	"CaseComments/internal/models"
	"CaseComments/internal/repository"
	"CaseComments/internal/service"
	"bytes"
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"strings"
	"testing"
)

type serviceBackend struct {
	svc   *service.Service
	calls int
}

func (b *serviceBackend) List(ctx context.Context, caseID string) ([]*models.Comment, error) {
	b.calls++
	return b.svc.List(ctx, caseID)
}

func (b *serviceBackend) Create(ctx context.Context, req models.CommentRequest) (*models.Comment, error) {
	b.calls++
	return b.svc.CreateComment(ctx, req)
}

func (b *serviceBackend) Update(ctx context.Context, id string, req models.UpdateRequest) (*models.Comment, error) {
	b.calls++
	return b.svc.UpdateComment(ctx, id, req)
}

func (b *serviceBackend) Delete(ctx context.Context, id, author string) error {
	b.calls++
	return b.svc.DeleteComment(ctx, id, author)
}

type brokenBackend struct{ serviceBackend }

func (b *brokenBackend) Create(context.Context, models.CommentRequest) (*models.Comment, error) {
	return nil, errors.New("server error (500): Failed to create comment")
}

func (b *brokenBackend) Update(context.Context, string, models.UpdateRequest) (*models.Comment, error) {
	return nil, errors.New("server error (500): Failed to update comment")
}

func (b *brokenBackend) Delete(context.Context, string, string) error {
	return errors.New("server error (500): Failed to delete comment")
}

func newBackend() *serviceBackend {
	return &serviceBackend{svc: service.NewService(repository.NewMemoryRepository(), nil, zap.NewNop())}
}

func TestPostAppendsWithoutRefetch(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	th := NewThread(b, "C1", "dr.chen", nil)
	require.NoError(t, th.Load(ctx))

	root, err := th.Post(ctx, "Biopsy results pending", nil, nil)
	require.NoError(t, err)
	_, err = th.Post(ctx, "Agreed", &root.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, b.calls)
	require.Len(t, th.Comments, 2)
	nodes := th.Nodes()
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "Agreed", nodes[0].Children[0].Content)
}

func TestPostEmptyIsLocal(t *testing.T) {
	b := newBackend()
	th := NewThread(b, "C1", "dr.chen", nil)

	_, err := th.Post(context.Background(), "   ", nil, nil)
	var validation *models.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Zero(t, b.calls)
	assert.Empty(t, th.Comments)
}

func TestFailuresKeepState(t *testing.T) {
	ctx := context.Background()
	good := newBackend()
	seed := NewThread(good, "C1", "dr.chen", nil)
	existing, err := seed.Post(ctx, "original", nil, nil)
	require.NoError(t, err)

	th := NewThread(&brokenBackend{serviceBackend: *good}, "C1", "dr.chen", nil)
	require.NoError(t, th.Load(ctx))

	_, err = th.Post(ctx, "new", nil, nil)
	require.Error(t, err)
	assert.Len(t, th.Comments, 1)
	assert.NotEmpty(t, th.Err)

	require.NoError(t, th.BeginEdit(existing.ID))
	require.Error(t, th.SaveEdit(ctx, "changed"))
	assert.Equal(t, "original", th.Comments[0].Content)
	assert.Equal(t, existing.ID, th.Editing())

	require.NoError(t, th.RequestDelete(existing.ID))
	require.Error(t, th.ConfirmDelete(ctx, existing.ID))
	assert.Len(t, th.Comments, 1)
}

func TestEditFlow(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	th := NewThread(b, "C1", "dr.chen", nil)
	c, err := th.Post(ctx, "first", nil, nil)
	require.NoError(t, err)

	require.NoError(t, th.BeginEdit(c.ID))
	err = th.SaveEdit(ctx, "")
	require.Error(t, err)
	assert.Equal(t, "first", th.Comments[0].Content)

	require.NoError(t, th.SaveEdit(ctx, "second"))
	assert.Equal(t, "second", th.Comments[0].Content)
	assert.True(t, th.Comments[0].Edited)
	assert.Empty(t, th.Editing())

	th.Comments[0].Revision = 99
	require.NoError(t, th.BeginEdit(c.ID))
	err = th.SaveEdit(ctx, "third")
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.Contains(t, th.Err, "changed elsewhere")
}

func TestEditOthersRejectedLocally(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	mine := NewThread(b, "C1", "dr.chen", nil)
	c, err := mine.Post(ctx, "mine", nil, nil)
	require.NoError(t, err)

	other := NewThread(b, "C1", "dr.patel", nil)
	require.NoError(t, other.Load(ctx))
	assert.True(t, errors.Is(other.BeginEdit(c.ID), models.ErrForbidden))
	assert.True(t, errors.Is(other.RequestDelete(c.ID), models.ErrForbidden))
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	th := NewThread(b, "C1", "dr.chen", nil)
	a, err := th.Post(ctx, "a", nil, nil)
	require.NoError(t, err)
	bb, err := th.Post(ctx, "b", nil, nil)
	require.NoError(t, err)

	require.Error(t, th.ConfirmDelete(ctx, a.ID))

	require.NoError(t, th.RequestDelete(a.ID))
	require.Error(t, th.ConfirmDelete(ctx, bb.ID))
	th.CancelDelete()
	require.Error(t, th.ConfirmDelete(ctx, a.ID))
	assert.Len(t, th.Comments, 2)

	require.NoError(t, th.RequestDelete(a.ID))
	require.NoError(t, th.ConfirmDelete(ctx, a.ID))
	require.Len(t, th.Comments, 1)
	assert.Equal(t, bb.ID, th.Comments[0].ID)
	assert.Empty(t, th.PendingDelete())
}

func TestRender(t *testing.T) {
	b := newBackend()
	ctx := context.Background()
	th := NewThread(b, "C1", "dr.chen", nil)

	var empty bytes.Buffer
	require.NoError(t, th.Render(&empty))
	assert.Contains(t, empty.String(), "No comments yet.")

	root, err := th.Post(ctx, "root note", nil, []models.Attachment{{Name: "scan.png", Type: "image/png"}})
	require.NoError(t, err)
	_, err = th.Post(ctx, "reply note", &root.ID, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, th.Render(&out))
	lines := strings.Split(out.String(), "\n")

	var rootLine, replyLine string
	for _, l := range lines {
		if strings.Contains(l, "root note") {
			rootLine = l
		}
		if strings.Contains(l, "reply note") {
			replyLine = l
		}
	}
	require.NotEmpty(t, rootLine)
	require.NotEmpty(t, replyLine)
	assert.Greater(t, leadingSpaces(replyLine), leadingSpaces(rootLine))
	assert.Contains(t, out.String(), "[attachment] scan.png")
	assert.Len(t, th.Replies(root.ID), 1)

	require.NoError(t, th.RequestDelete(root.ID))
	require.NoError(t, th.ConfirmDelete(ctx, root.ID))
	out.Reset()
	require.NoError(t, th.Render(&out))
	assert.NotContains(t, out.String(), "reply note")
	assert.Contains(t, out.String(), "1 replies hidden")
}

func TestSuggest(t *testing.T) {
	th := NewThread(newBackend(), "C1", "dr.chen", []string{"Dr. Chen", "Dr. Patel"})
	assert.Equal(t, []string{"Dr. Patel"}, th.Suggest("ask @pa", 7))
	assert.Nil(t, th.Suggest("no mention", 10))
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}
