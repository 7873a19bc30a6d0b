package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpay/internal/card"
	"tillpay/internal/domain"
	"tillpay/internal/pos"
	"tillpay/internal/provider"
)

type POSHandler struct {
	svc *pos.Service
}

func NewPOSHandler(svc *pos.Service) *POSHandler {
	return &POSHandler{svc: svc}
}

// cardPayload is the transport shape for captured card details. Handlers
// blank it before returning; the domain copy is zeroized by the service.
type cardPayload struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
	Name        string `json:"name"`
}

func (p *cardPayload) toData() *card.Data {
	return &card.Data{
		Number:      p.Number,
		ExpiryMonth: p.ExpiryMonth,
		ExpiryYear:  p.ExpiryYear,
		CVV:         p.CVV,
		Name:        p.Name,
	}
}

func (p *cardPayload) blank() {
	*p = cardPayload{}
}

// Charge runs the full attempt: lock check, tokenize, idempotent charge,
// attempt recording. Declines come back with a 402 and the provider's
// error message; lockouts with 423 and the until timestamp.
func (h *POSHandler) Charge(c *gin.Context) {
	var req struct {
		UserID         uint              `json:"user_id" binding:"required"`
		AmountCents    int64             `json:"amount_cents" binding:"required"`
		Currency       string            `json:"currency" binding:"required"`
		Description    string            `json:"description"`
		Metadata       map[string]string `json:"metadata"`
		IdempotencyKey string            `json:"idempotency_key" binding:"required"`
		Card           cardPayload       `json:"card" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge request"})
		return
	}
	defer req.Card.blank()

	resp, err := h.svc.Charge(c.Request.Context(), &pos.ChargeInput{
		UserID:         req.UserID,
		DeviceID:       c.GetHeader("X-Device-ID"),
		NetworkOrigin:  c.ClientIP(),
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Description:    req.Description,
		Metadata:       req.Metadata,
		IdempotencyKey: req.IdempotencyKey,
		Card:           req.Card.toData(),
	})
	if err != nil {
		h.chargeError(c, err)
		return
	}
	if resp.Status == domain.ChargeSucceeded {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusPaymentRequired, resp)
}

func (h *POSHandler) chargeError(c *gin.Context, err error) {
	var locked *pos.LockedError
	switch {
	case errors.As(err, &locked):
		c.JSON(http.StatusLocked, gin.H{
			"error":  "payments locked",
			"reason": locked.Reason,
			"until":  locked.Until,
		})
	case errors.Is(err, pos.ErrInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "request already in flight"})
	case errors.Is(err, pos.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, provider.ErrNotImplemented):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment processing error"})
	}
}

// Tokenize exchanges card details for a single-use token, for the draft
// materialization flow.
func (h *POSHandler) Tokenize(c *gin.Context) {
	var req struct {
		Card cardPayload `json:"card" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tokenize request"})
		return
	}
	defer req.Card.blank()

	tok, err := h.svc.Tokenize(c.Request.Context(), req.Card.toData())
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCard) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, provider.ErrNotImplemented) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment provider unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tokenization failed"})
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (h *POSHandler) Refund(c *gin.Context) {
	var req struct {
		UserID         uint   `json:"user_id" binding:"required"`
		ChargeID       string `json:"charge_id" binding:"required"`
		AmountCents    int64  `json:"amount_cents" binding:"required"`
		Reason         string `json:"reason"`
		IdempotencyKey string `json:"idempotency_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid refund request"})
		return
	}
	resp, err := h.svc.Refund(c.Request.Context(), &pos.RefundInput{
		UserID:         req.UserID,
		DeviceID:       c.GetHeader("X-Device-ID"),
		NetworkOrigin:  c.ClientIP(),
		ChargeID:       req.ChargeID,
		AmountCents:    req.AmountCents,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.chargeError(c, err)
		return
	}
	if resp.Status == domain.ChargeSucceeded {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusPaymentRequired, resp)
}
