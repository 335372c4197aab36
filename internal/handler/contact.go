package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/contact"
	"github.com/aman-churiwal/getyoursite/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contactAccepted = "Message received! We will get back to you soon."

type ContactHandler struct {
	pipeline *contact.Pipeline
	logger   *zap.Logger
}

func NewContactHandler(pipeline *contact.Pipeline, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{pipeline: pipeline, logger: logger}
}

// Runs a contact form submission through the ingestion pipeline
func (h *ContactHandler) Submit(c *gin.Context) {
	var in contact.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	clientAddress := c.ClientIP()
	_, err := h.pipeline.Submit(c.Request.Context(), in, clientAddress)

	var (
		validationErr *contact.ValidationError
		storageErr    *contact.StorageError
	)

	switch {
	case err == nil:
		middleware.SetRateLimitHeaders(c, h.pipeline.Limiter(), clientAddress, true)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   contactAccepted,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	case errors.Is(err, contact.ErrRateLimited):
		middleware.SetRateLimitHeaders(c, h.pipeline.Limiter(), clientAddress, false)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		middleware.SetRateLimitHeaders(c, h.pipeline.Limiter(), clientAddress, true)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  validationErr.Error(),
			"errors": validationErr.Errors,
		})
	case errors.As(err, &storageErr):
		h.logger.Error("contact submission lost", zap.Error(storageErr.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error, please try again later"})
	default:
		h.logger.Error("contact submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error, please try again later"})
	}
}
