package provider

import (
	"context"
	"strings"
	"testing"
	"time"

	"tillpay/internal/card"
	"tillpay/internal/domain"
)

func testMock() *Mock {
	// Latency and failure rates off so outcomes are deterministic.
	return NewMock(Config{Seed: 1})
}

func validCard() *card.Data {
	return &card.Data{
		Number:      "4111111111111111",
		ExpiryMonth: "12",
		ExpiryYear:  "2030",
		CVV:         "123",
		Name:        "JANE DOE",
	}
}

func TestTokenizeCardValid(t *testing.T) {
	m := testMock()
	tok, err := m.TokenizeCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(tok.Value, "tok_") {
		t.Errorf("token shape: %q", tok.Value)
	}
	until := time.Until(tok.ExpiresAt)
	if until < 14*time.Minute || until > 16*time.Minute {
		t.Errorf("token expiry %v, want ~15m", until)
	}
}

func TestTokenizeCardUnique(t *testing.T) {
	m := testMock()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := m.TokenizeCard(context.Background(), validCard())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[tok.Value] {
			t.Fatalf("duplicate token %q", tok.Value)
		}
		seen[tok.Value] = true
	}
}

func TestTokenizeCardRejectsIncomplete(t *testing.T) {
	m := testMock()
	c := validCard()
	c.CVV = ""
	if _, err := m.TokenizeCard(context.Background(), c); err == nil {
		t.Fatal("expected error for missing cvv")
	}
}

func TestTokenizeCardRejectsExpired(t *testing.T) {
	m := testMock()
	c := validCard()
	c.ExpiryMonth = "01"
	c.ExpiryYear = "2020"
	if _, err := m.TokenizeCard(context.Background(), c); err == nil {
		t.Fatal("expected error for expired card")
	}
}

func TestChargeHappyPath(t *testing.T) {
	m := testMock()
	tok, err := m.TokenizeCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	resp, err := m.Charge(context.Background(), &ChargeRequest{
		Token:          tok.Value,
		AmountCents:    5000,
		Currency:       "NGN",
		IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if resp.Status != domain.ChargeSucceeded {
		t.Fatalf("status %s (%s)", resp.Status, resp.ErrorCode)
	}
	if resp.AmountCents != 5000 || resp.Currency != "NGN" {
		t.Errorf("amount/currency not echoed: %+v", resp)
	}
}

func TestChargeTokenSingleUse(t *testing.T) {
	m := testMock()
	tok, err := m.TokenizeCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	req := &ChargeRequest{Token: tok.Value, AmountCents: 5000, Currency: "NGN", IdempotencyKey: "k1"}
	if _, err := m.Charge(context.Background(), req); err != nil {
		t.Fatalf("first charge: %v", err)
	}
	second, err := m.Charge(context.Background(), req)
	if err != nil {
		t.Fatalf("second charge: %v", err)
	}
	if second.Status != domain.ChargeFailed || second.ErrorCode != domain.ReasonTokenAlreadyUsed {
		t.Fatalf("second use: %s/%s, want failed/%s", second.Status, second.ErrorCode, domain.ReasonTokenAlreadyUsed)
	}
}

// A token is consumed even when its first charge fails, so a declined
// charge cannot be replayed with the same token.
func TestChargeConsumesTokenOnFailure(t *testing.T) {
	m := NewMock(Config{Seed: 1, FraudRate: 1})
	tok, err := m.TokenizeCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	req := &ChargeRequest{Token: tok.Value, AmountCents: 5000, Currency: "NGN", IdempotencyKey: "k1"}
	first, err := m.Charge(context.Background(), req)
	if err != nil {
		t.Fatalf("first charge: %v", err)
	}
	if first.ErrorCode != domain.ReasonSuspectedFraud {
		t.Fatalf("first charge: %s, want suspected_fraud", first.ErrorCode)
	}
	second, _ := m.Charge(context.Background(), req)
	if second.ErrorCode != domain.ReasonTokenAlreadyUsed {
		t.Fatalf("second charge: %s, want token_already_used", second.ErrorCode)
	}
}

func TestChargeUnknownToken(t *testing.T) {
	m := testMock()
	resp, err := m.Charge(context.Background(), &ChargeRequest{Token: "tok_bogus", AmountCents: 100, Currency: "NGN"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if resp.ErrorCode != domain.ReasonInvalidToken {
		t.Fatalf("got %s, want invalid_token", resp.ErrorCode)
	}
}

func TestChargeExpiredToken(t *testing.T) {
	m := testMock()
	tok, err := m.TokenizeCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	later := time.Now().Add(20 * time.Minute)
	m.SetClock(func() time.Time { return later })
	resp, err := m.Charge(context.Background(), &ChargeRequest{Token: tok.Value, AmountCents: 100, Currency: "NGN"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if resp.ErrorCode != domain.ReasonTokenExpired {
		t.Fatalf("got %s, want token_expired", resp.ErrorCode)
	}
}

func TestRefund(t *testing.T) {
	m := testMock()
	resp, err := m.Refund(context.Background(), &RefundRequest{ChargeID: "ch_1", AmountCents: 5000, IdempotencyKey: "r1"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if resp.Status != domain.ChargeSucceeded {
		t.Fatalf("status %s", resp.Status)
	}
	if resp.ChargeID != "ch_1" {
		t.Errorf("charge id not referenced: %+v", resp)
	}
}

func TestStubsAreInert(t *testing.T) {
	for _, p := range []Provider{Stripe{}, Paystack{}, Flutterwave{}} {
		if p.IsAvailable() {
			t.Errorf("%T should be unavailable", p)
		}
		if _, err := p.TokenizeCard(context.Background(), validCard()); err != ErrNotImplemented {
			t.Errorf("%T tokenize err = %v", p, err)
		}
		if _, err := p.Charge(context.Background(), &ChargeRequest{}); err != ErrNotImplemented {
			t.Errorf("%T charge err = %v", p, err)
		}
		if _, err := p.Refund(context.Background(), &RefundRequest{}); err != ErrNotImplemented {
			t.Errorf("%T refund err = %v", p, err)
		}
	}
}

func TestFactory(t *testing.T) {
	p, err := New("mock", Config{})
	if err != nil || !p.IsAvailable() {
		t.Fatalf("mock factory: %v", err)
	}
	if _, err := New("square", Config{}); err == nil {
		t.Fatal("unknown provider should error")
	}
}
