package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tillpay/internal/fraud"
)

type LockHandler struct {
	tracker *fraud.Tracker
}

func NewLockHandler(tracker *fraud.Tracker) *LockHandler {
	return &LockHandler{tracker: tracker}
}

func (h *LockHandler) Status(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	status, err := h.tracker.IsLocked(fraud.Key{
		UserID:        uint(userID),
		DeviceID:      c.GetHeader("X-Device-ID"),
		NetworkOrigin: c.ClientIP(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lock lookup failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Clear is an administrative override: one user's locks, or all of them.
func (h *LockHandler) Clear(c *gin.Context) {
	if v := c.Query("user_id"); v != "" {
		userID, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		if err := h.tracker.ClearUserLocks(uint(userID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"cleared": true})
		return
	}
	if err := h.tracker.ClearAllLocks(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *LockHandler) Stats(c *gin.Context) {
	stats, err := h.tracker.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
