package handler

import (
	"net/http"
	"strconv"

	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessagesHandler struct {
	repo   *repository.SubmissionRepository
	logger *zap.Logger
}

func NewMessagesHandler(repo *repository.SubmissionRepository, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{repo: repo, logger: logger}
}

// Lists stored submissions, newest first
func (h *MessagesHandler) List(c *gin.Context) {
	limit, err := queryInt(c, "limit", repository.DefaultListLimit)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	submissions, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, submissions)
}

func (h *MessagesHandler) MarkRead(c *gin.Context) {
	var req struct {
		MessageID string `json:"messageId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), req.MessageID); err != nil {
		h.logger.Error("failed to mark message read", zap.String("id", req.MessageID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MessagesHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete message", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
