package service

import (
	"CaseComments/internal/cache"
	"CaseComments/internal/markdown"
	"CaseComments/internal/models"
	"CaseComments/internal/thread"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"strings"
	"time"
)

const (
	msgRequiredFields = "caseId, author, and content are required"
	msgEmptyContent   = "content is required"
	msgParentMissing  = "parent comment not found"
	msgParentCase     = "parent comment belongs to a different case"
	minSearchLength   = 3
)

type Repository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Comment, error)
	Update(ctx context.Context, c *models.Comment, expectedRevision int) error
	Delete(ctx context.Context, id string) error
	SearchByText(ctx context.Context, query string) ([]*models.Comment, error)
}

type Service struct {
	repo  Repository
	cache *cache.Cache[[]*models.Comment]
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// NewService wires the store; listCache may be nil to disable list caching.
func NewService(repo Repository, listCache *cache.Cache[[]*models.Comment], log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: listCache,
		log:   log.Named("service"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

func (s *Service) List(ctx context.Context, caseID string) ([]*models.Comment, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(caseID); ok {
			s.log.Debug("Comment list served from cache", zap.String("case_id", caseID))
			return cloneAll(cached), nil
		}
	}

	var version uint64
	if s.cache != nil {
		version = s.cache.Version()
	}
	comments, err := s.repo.ListByCase(ctx, caseID)
	if err != nil {
		s.log.Error("Failed to list comments", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if s.cache != nil {
		s.cache.SetIfCurrent(caseID, version, cloneAll(comments))
	}
	return comments, nil
}

func (s *Service) CreateComment(ctx context.Context, cr models.CommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(cr.CaseID) == "" || strings.TrimSpace(cr.Author) == "" || strings.TrimSpace(cr.Content) == "" {
		return nil, &models.ValidationError{Message: msgRequiredFields}
	}

	if cr.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *cr.ParentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				s.log.Warn("Parent comment not found on creation attempt", zap.String("parent_id", *cr.ParentID))
				return nil, &models.ValidationError{Message: msgParentMissing}
			}
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
		if parent.CaseID != cr.CaseID {
			s.log.Warn("Parent comment belongs to another case",
				zap.String("parent_id", parent.ID), zap.String("case_id", cr.CaseID))
			return nil, &models.ValidationError{Message: msgParentCase}
		}
	}

	now := s.now()
	attachments := cr.Attachments
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	comment := &models.Comment{
		ID:          s.newID(),
		CaseID:      cr.CaseID,
		Author:      cr.Author,
		Content:     cr.Content,
		ParentID:    cr.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Revision:    1,
		Attachments: attachments,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		s.log.Error("Failed to create comment", zap.Error(err))
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	s.invalidate(comment.CaseID)
	return comment, nil
}

// UpdateComment replaces the content of a comment owned by author. When
// ur.Revision is set it must match the stored revision.
func (s *Service) UpdateComment(ctx context.Context, id string, ur models.UpdateRequest) (*models.Comment, error) {
	comment, err := s.owned(ctx, id, ur.Author)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ur.Content) == "" {
		return nil, &models.ValidationError{Message: msgEmptyContent}
	}
	if ur.Revision != nil && *ur.Revision != comment.Revision {
		s.log.Debug("Stale revision on update", zap.String("id", id),
			zap.Int("expected", *ur.Revision), zap.Int("stored", comment.Revision))
		return nil, fmt.Errorf("comment %s at revision %d: %w", id, comment.Revision, models.ErrConflict)
	}

	expected := comment.Revision
	comment.Content = ur.Content
	comment.Edited = true
	comment.Revision++
	comment.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, comment, expected); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			s.log.Error("Failed to update comment", zap.String("id", id), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	s.invalidate(comment.CaseID)
	return comment, nil
}

// DeleteComment hard-deletes a comment owned by author. Replies are kept and
// become orphans.
func (s *Service) DeleteComment(ctx context.Context, id, author string) error {
	comment, err := s.owned(ctx, id, author)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("Failed to delete comment", zap.String("id", id), zap.Error(err))
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.invalidate(comment.CaseID)
	return nil
}

func (s *Service) Threads(ctx context.Context, caseID string) (*models.ThreadView, error) {
	comments, err := s.List(ctx, caseID)
	if err != nil {
		return nil, err
	}

	roots := thread.Build(comments)
	visited := 0
	thread.Walk(roots, func(n *models.CommentNode, _ int) {
		n.ContentHTML = markdown.Render(n.Content)
		visited++
	})
	s.log.Debug("Built comment threads", zap.String("case_id", caseID),
		zap.Int("count", len(comments)), zap.Int("roots", len(roots)))

	return &models.ThreadView{
		CaseID:   caseID,
		Threads:  roots,
		Orphaned: len(comments) - visited,
	}, nil
}

func (s *Service) SearchComments(ctx context.Context, query string) ([]*models.Comment, error) {
	s.log.Debug("Searching for comments", zap.String("query", query))
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return []*models.Comment{}, nil
	}
	return s.repo.SearchByText(ctx, query)
}

func (s *Service) owned(ctx context.Context, id, author string) (*models.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.Error("Failed to get comment", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	if comment.Author != author {
		s.log.Warn("Author mismatch", zap.String("id", id), zap.String("author", author))
		return nil, fmt.Errorf("comment %s: %w", id, models.ErrForbidden)
	}
	return comment, nil
}

func (s *Service) invalidate(caseID string) {
	if s.cache != nil {
		s.cache.Delete(caseID)
	}
}

func cloneAll(in []*models.Comment) []*models.Comment {
	out := make([]*models.Comment, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
