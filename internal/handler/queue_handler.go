package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tillpay/internal/queue"
)

type QueueHandler struct {
	queue *queue.Manager
}

func NewQueueHandler(q *queue.Manager) *QueueHandler {
	return &QueueHandler{queue: q}
}

func (h *QueueHandler) PendingCount(c *gin.Context) {
	var userID uint
	if v := c.Query("user_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		userID = uint(n)
	}
	count, err := h.queue.PendingCount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": count})
}

// Process is the network-online edge trigger from the UI. The in-flight
// latch makes concurrent triggers a no-op.
func (h *QueueHandler) Process(c *gin.Context) {
	h.queue.NotifyOnline()
	c.JSON(http.StatusAccepted, gin.H{"triggered": true})
}
