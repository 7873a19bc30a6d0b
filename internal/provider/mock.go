package provider

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"tillpay/internal/card"
	"tillpay/internal/domain"
)

// Mock simulates a card network: single-use tokens, probabilistic declines
// and a latency floor so callers exercise real async behavior. Latency and
// failure rates go to zero in tests via Config.
type Mock struct {
	mu       sync.Mutex
	issued   map[string]time.Time // token -> expiry
	consumed map[string]struct{}
	rng      *rand.Rand

	tokenExpiry time.Duration
	latency     time.Duration
	fraudRate   float64
	failRate    float64
	now         func() time.Time
}

func NewMock(cfg Config) *Mock {
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 15 * time.Minute
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Mock{
		issued:      make(map[string]time.Time),
		consumed:    make(map[string]struct{}),
		rng:         rand.New(rand.NewSource(seed)),
		tokenExpiry: cfg.TokenExpiry,
		latency:     cfg.Latency,
		fraudRate:   cfg.FraudRate,
		failRate:    cfg.FailRate,
		now:         time.Now,
	}
}

// SetClock overrides the clock, for token-expiry tests.
func (m *Mock) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Mock) IsAvailable() bool { return true }

// TokenizeCard validates the card and issues a fresh single-use token.
// Only a truncated token prefix is ever logged.
func (m *Mock) TokenizeCard(ctx context.Context, c *card.Data) (*Token, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	if !c.Complete() {
		return nil, fmt.Errorf("%w: missing fields", ErrInvalidCard)
	}
	if !expiryInFuture(c.ExpiryMonth, c.ExpiryYear, m.clock()()) {
		return nil, fmt.Errorf("%w: card expired", ErrInvalidCard)
	}
	tok := "tok_" + uuid.NewString()
	exp := m.clock()().Add(m.tokenExpiry)
	m.mu.Lock()
	m.issued[tok] = exp
	m.mu.Unlock()
	log.Printf("[mock] issued token %s... (expires %s)", tok[:12], exp.Format(time.RFC3339))
	return &Token{Value: tok, ExpiresAt: exp}, nil
}

func (m *Mock) clock() func() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func expiryInFuture(month, year string, now time.Time) bool {
	mm, err := strconv.Atoi(month)
	if err != nil || mm < 1 || mm > 12 {
		return false
	}
	yy, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	if yy < 100 {
		yy += 2000
	}
	// Valid through the end of the expiry month.
	endOfMonth := time.Date(yy, time.Month(mm), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return endOfMonth.After(now)
}

// Charge consumes the token and simulates an outcome. The already-used check
// runs first, and the token is marked consumed regardless of what the
// simulated network would have returned.
func (m *Mock) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	now := m.clock()()

	m.mu.Lock()
	_, used := m.consumed[req.Token]
	exp, known := m.issued[req.Token]
	if !used {
		m.consumed[req.Token] = struct{}{}
	}
	roll := m.rng.Float64()
	failRoll := m.rng.Float64()
	pick := m.rng.Intn(len(declineCodes))
	m.mu.Unlock()

	resp := &ChargeResponse{
		ID:          "ch_" + uuid.NewString(),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}
	switch {
	case used:
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = domain.ReasonTokenAlreadyUsed
		resp.ErrorMessage = "token has already been used"
	case !known:
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = domain.ReasonInvalidToken
		resp.ErrorMessage = "unknown token"
	case now.After(exp):
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = domain.ReasonTokenExpired
		resp.ErrorMessage = "token expired"
	case roll < m.fraudRate:
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = domain.ReasonSuspectedFraud
		resp.ErrorMessage = "charge flagged as suspected fraud"
	case failRoll < m.failRate:
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = declineCodes[pick]
		resp.ErrorMessage = "card declined by issuer"
	default:
		resp.Status = domain.ChargeSucceeded
	}
	log.Printf("[mock] charge %s -> %s %s", resp.ID, resp.Status, resp.ErrorCode)
	return resp, nil
}

var declineCodes = []string{
	domain.ReasonCardDeclined,
	domain.ReasonInsufficientFunds,
	domain.ReasonExpiredCard,
	domain.ReasonInvalidCVV,
}

func (m *Mock) Refund(ctx context.Context, req *RefundRequest) (*RefundResponse, error) {
	if err := m.sleep(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	roll := m.rng.Float64()
	m.mu.Unlock()

	resp := &RefundResponse{
		ID:          "re_" + uuid.NewString(),
		ChargeID:    req.ChargeID,
		AmountCents: req.AmountCents,
	}
	if roll < m.failRate {
		resp.Status = domain.ChargeFailed
		resp.ErrorCode = domain.ReasonRefundFailed
		resp.ErrorMessage = "refund rejected by issuer"
	} else {
		resp.Status = domain.ChargeSucceeded
	}
	return resp, nil
}

func (m *Mock) sleep(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
