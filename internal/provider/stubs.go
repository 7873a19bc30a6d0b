package provider

import (
	"context"

	"tillpay/internal/card"
)

// Network provider placeholders. They document the extension seam and are
// deliberately inert: unavailable, and not-implemented everywhere else.

type Stripe struct{}

func (Stripe) IsAvailable() bool { return false }
func (Stripe) TokenizeCard(context.Context, *card.Data) (*Token, error) {
	return nil, ErrNotImplemented
}
func (Stripe) Charge(context.Context, *ChargeRequest) (*ChargeResponse, error) {
	return nil, ErrNotImplemented
}
func (Stripe) Refund(context.Context, *RefundRequest) (*RefundResponse, error) {
	return nil, ErrNotImplemented
}

type Paystack struct{}

func (Paystack) IsAvailable() bool { return false }
func (Paystack) TokenizeCard(context.Context, *card.Data) (*Token, error) {
	return nil, ErrNotImplemented
}
func (Paystack) Charge(context.Context, *ChargeRequest) (*ChargeResponse, error) {
	return nil, ErrNotImplemented
}
func (Paystack) Refund(context.Context, *RefundRequest) (*RefundResponse, error) {
	return nil, ErrNotImplemented
}

type Flutterwave struct{}

func (Flutterwave) IsAvailable() bool { return false }
func (Flutterwave) TokenizeCard(context.Context, *card.Data) (*Token, error) {
	return nil, ErrNotImplemented
}
func (Flutterwave) Charge(context.Context, *ChargeRequest) (*ChargeResponse, error) {
	return nil, ErrNotImplemented
}
func (Flutterwave) Refund(context.Context, *RefundRequest) (*RefundResponse, error) {
	return nil, ErrNotImplemented
}
