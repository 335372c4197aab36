package handler

import (
	"net/http"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BreakerReporter exposes the state of the breaker guarding outbound mail.
type BreakerReporter interface {
	Metrics() circuitbreaker.Metrics
	Reset()
}

// Handles system-related endpoints
type SystemHandler struct {
	submissions *repository.SubmissionRepository
	mailBreaker BreakerReporter
	startedAt   time.Time
	logger      *zap.Logger
}

// mailBreaker may be nil when mail is not configured.
func NewSystemHandler(submissions *repository.SubmissionRepository, mailBreaker BreakerReporter, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		submissions: submissions,
		mailBreaker: mailBreaker,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// Returns the public API banner
func (h *SystemHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome to the GetYourSite API",
		"path":      c.DefaultQuery("path", "GetYourSite API"),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    "active",
	})
}

// Returns message counts, uptime and the mail breaker state
func (h *SystemHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.submissions.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
		return
	}
	unread, err := h.submissions.CountUnread(ctx)
	if err != nil {
		h.logger.Error("failed to count unread messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
		return
	}

	resp := gin.H{
		"messages": gin.H{
			"total":  total,
			"unread": unread,
		},
		"uptime":    time.Since(h.startedAt).Seconds(),
		"timestamp": time.Now().Unix(),
	}

	if h.mailBreaker != nil {
		resp["mail"] = gin.H{"enabled": true, "circuit_breaker": h.mailBreaker.Metrics()}
	} else {
		resp["mail"] = gin.H{"enabled": false}
	}

	c.JSON(http.StatusOK, resp)
}

// Manually closes the mail circuit breaker
func (h *SystemHandler) ResetMailBreaker(c *gin.Context) {
	if h.mailBreaker == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "mail is not configured"})
		return
	}

	h.mailBreaker.Reset()
	h.logger.Info("mail circuit breaker reset")

	c.JSON(http.StatusOK, gin.H{"message": "Circuit breaker reset successfully"})
}
