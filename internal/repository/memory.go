package repository

import (
	"CaseComments/internal/models"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const searchLimit = 50

// MemoryRepository keeps comments in process memory. Contents are lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
	order    []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{comments: make(map[string]*models.Comment)}
}

func (r *MemoryRepository) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.ID]; ok {
		return fmt.Errorf("comment %s already exists", c.ID)
	}
	r.comments[c.ID] = c.Clone()
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	return c.Clone(), nil
}

func (r *MemoryRepository) ListByCase(_ context.Context, caseID string) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Comment{}
	for _, id := range r.order {
		if c := r.comments[id]; c.CaseID == caseID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, c *models.Comment, expectedRevision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.comments[c.ID]
	if !ok {
		return fmt.Errorf("comment %s: %w", c.ID, models.ErrNotFound)
	}
	if stored.Revision != expectedRevision {
		return fmt.Errorf("comment %s: %w", c.ID, models.ErrConflict)
	}
	stored.Content = c.Content
	stored.Edited = c.Edited
	stored.Revision = c.Revision
	stored.UpdatedAt = c.UpdatedAt
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, models.ErrNotFound)
	}
	delete(r.comments, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) SearchByText(_ context.Context, query string) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(query)
	out := []*models.Comment{}
	for _, id := range r.order {
		if c := r.comments[id]; strings.Contains(strings.ToLower(c.Content), needle) {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > searchLimit {
		out = out[:searchLimit]
	}
	return out, nil
}
