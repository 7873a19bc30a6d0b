package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tillpay/internal/queue"
)

type DraftHandler struct {
	queue *queue.Manager
}

func NewDraftHandler(q *queue.Manager) *DraftHandler {
	return &DraftHandler{queue: q}
}

// Create records a payment intent while offline or pre-capture. No card
// fields are accepted here by construction.
func (h *DraftHandler) Create(c *gin.Context) {
	var req struct {
		UserID      uint              `json:"user_id" binding:"required"`
		AmountCents int64             `json:"amount_cents" binding:"required"`
		Currency    string            `json:"currency" binding:"required"`
		Description string            `json:"description"`
		Metadata    map[string]string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft request"})
		return
	}
	id, err := h.queue.CreateDraft(req.UserID, req.AmountCents, req.Currency, req.Description, req.Metadata)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft_id": id})
}

func (h *DraftHandler) List(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	drafts, err := h.queue.ListDrafts(uint(userID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "draft lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// Materialize converts a draft into a queued transaction with a freshly
// tokenized card. A missing draft means the operator should start over.
func (h *DraftHandler) Materialize(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	txID, err := h.queue.Materialize(c.Param("id"), req.Token)
	if errors.Is(err, queue.ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found, please re-enter the payment"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "materialize failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_id": txID})
}

func (h *DraftHandler) Discard(c *gin.Context) {
	err := h.queue.DiscardDraft(c.Param("id"))
	if errors.Is(err, queue.ErrDraftNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "discard failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"discarded": true})
}
