package handlers

import (
	"CaseComments/internal/models"
	"context"
	"encoding/json"
	"errors"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"io"
	"net/http"
)

type CommentService interface {
	List(ctx context.Context, caseID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, cr models.CommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, id string, ur models.UpdateRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, id, author string) error
	Threads(ctx context.Context, caseID string) (*models.ThreadView, error)
	SearchComments(ctx context.Context, query string) ([]*models.Comment, error)
}

type CommentHandler struct {
	service CommentService
}

func NewCommentHandler(service CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) ListComments(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	caseID := c.Param("caseId")

	comments, err := h.service.List(c.Request.Context(), caseID)
	if err != nil {
		writeError(c, log, err, "Failed to get comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) GetThreads(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	caseID := c.Param("caseId")

	view, err := h.service.Threads(c.Request.Context(), caseID)
	if err != nil {
		writeError(c, log, err, "Failed to get comment threads")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CommentHandler) CreateComment(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	log.Debug("Creating comment")
	commentRequest := &models.CommentRequest{}
	if err := decodeBody(c, commentRequest); err != nil {
		log.Warn("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), *commentRequest)
	if err != nil {
		writeError(c, log, err, "Failed to create comment")
		return
	}
	log.Debug("Created comment", zap.String("id", comment.ID))
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	id := c.Param("id")
	updateRequest := &models.UpdateRequest{}
	if err := decodeBody(c, updateRequest); err != nil {
		log.Warn("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), id, *updateRequest)
	if err != nil {
		writeError(c, log, err, "Failed to update comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	id := c.Param("id")
	deleteRequest := &models.DeleteRequest{}
	if err := decodeBody(c, deleteRequest); err != nil {
		log.Warn("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}
	// Some clients drop DELETE bodies.
	if deleteRequest.Author == "" {
		deleteRequest.Author = c.Query("author")
	}

	if err := h.service.DeleteComment(c.Request.Context(), id, deleteRequest.Author); err != nil {
		writeError(c, log, err, "Failed to delete comment")
		return
	}
	log.Debug("Deleted comment", zap.String("id", id))
	c.JSON(http.StatusOK, ginext.H{"success": true})
}

func (h *CommentHandler) SearchComments(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	query := c.Query("q")

	log.Debug("Searching for comments", zap.String("query", query))
	results, err := h.service.SearchComments(c.Request.Context(), query)
	if err != nil {
		writeError(c, log, err, "Failed to perform search")
		return
	}
	c.JSON(http.StatusOK, ginext.H{"comments": results})
}

// decodeBody reads a JSON body; an empty body leaves v at its zero value.
func decodeBody(c *ginext.Context, v any) error {
	if c.Request.Body == nil {
		return nil
	}
	err := json.NewDecoder(c.Request.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(c *ginext.Context, log *zap.Logger, err error, fallback string) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		log.Warn("Rejected invalid request", zap.String("reason", validation.Message))
		c.JSON(http.StatusBadRequest, ginext.H{"error": validation.Message})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ginext.H{"error": "Comment not found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, ginext.H{"error": "Not your comment"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, ginext.H{"error": "Comment was changed by another request, reload and retry"})
	default:
		log.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ginext.H{"error": fallback})
	}
}
