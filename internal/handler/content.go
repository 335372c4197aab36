package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aman-churiwal/getyoursite/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContentHandler struct {
	service *service.ContentService
	logger  *zap.Logger
}

func NewContentHandler(service *service.ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{service: service, logger: logger}
}

func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.service.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load site content", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
		return
	}

	c.JSON(http.StatusOK, content)
}

// Replaces one section of the site content
func (h *ContentHandler) Update(c *gin.Context) {
	var req struct {
		Type string          `json:"type" binding:"required"`
		Data json.RawMessage `json:"data" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and data are required"})
		return
	}

	err := h.service.Update(c.Request.Context(), req.Type, req.Data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "type": req.Type})
	case errors.Is(err, service.ErrUnknownSection), errors.Is(err, service.ErrInvalidContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to update site content", zap.String("section", req.Type), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update content"})
	}
}
