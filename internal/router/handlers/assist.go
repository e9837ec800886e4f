package handlers

import (
	"CaseComments/internal/assist"
	"context"
	"errors"
	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"
	"net/http"
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type AssistHandler struct {
	completer Completer
}

// NewAssistHandler accepts a nil completer; requests then get 503.
func NewAssistHandler(completer Completer) *AssistHandler {
	return &AssistHandler{completer: completer}
}

type assistRequest struct {
	Prompt string `json:"prompt"`
}

func (h *AssistHandler) Complete(c *ginext.Context) {
	log := c.MustGet("logger").(*zap.Logger)
	if h.completer == nil {
		c.JSON(http.StatusServiceUnavailable, ginext.H{"error": "AI suggestions are not configured"})
		return
	}

	req := &assistRequest{}
	if err := decodeBody(c, req); err != nil {
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}

	text, err := h.completer.Complete(c.Request.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, assist.ErrEmptyPrompt) {
			c.JSON(http.StatusBadRequest, ginext.H{"error": err.Error()})
			return
		}
		log.Error("Failed to get completion", zap.Error(err))
		c.JSON(http.StatusBadGateway, ginext.H{"error": "Failed to get AI suggestion"})
		return
	}
	c.JSON(http.StatusOK, ginext.H{"text": text})
}
