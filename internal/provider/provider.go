package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tillpay/internal/card"
)

// Token is a single-use tokenization result. It may be redeemed by exactly
// one Charge call before ExpiresAt.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ChargeRequest struct {
	Token          string            `json:"token"`
	AmountCents    int64             `json:"amount_cents"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// ChargeResponse never carries card details. A decline is a normal response
// with Status failed and an ErrorCode, not an error return.
type ChargeResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"` // succeeded, failed, pending, requires_action
	AmountCents  int64             `json:"amount_cents"`
	Currency     string            `json:"currency"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type RefundRequest struct {
	ChargeID       string `json:"charge_id"`
	AmountCents    int64  `json:"amount_cents"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

type RefundResponse struct {
	ID           string `json:"id"`
	ChargeID     string `json:"charge_id"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount_cents"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

var (
	ErrInvalidCard    = errors.New("invalid card data")
	ErrNotImplemented = errors.New("payment provider not implemented")
)

// Provider is the seam to a card network. Only the mock is functional; the
// network variants are placeholders documenting the extension point.
type Provider interface {
	TokenizeCard(ctx context.Context, c *card.Data) (*Token, error)
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)
	IsAvailable() bool
}

// Config tunes the mock simulation; the stubs ignore it.
type Config struct {
	TokenExpiry time.Duration
	Latency     time.Duration
	FraudRate   float64
	FailRate    float64
	Seed        int64
}

// New selects a provider by name.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "", "mock":
		return NewMock(cfg), nil
	case "stripe":
		return Stripe{}, nil
	case "paystack":
		return Paystack{}, nil
	case "flutterwave":
		return Flutterwave{}, nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", name)
	}
}
