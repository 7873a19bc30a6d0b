package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tillpay/internal/card"
	"tillpay/internal/domain"
	"tillpay/internal/fraud"
	"tillpay/internal/idempotency"
	"tillpay/internal/provider"
	"tillpay/internal/redact"
)

var (
	ErrInvalidRequest = errors.New("invalid charge request")
	// ErrInFlight means the same idempotency key is still being processed.
	ErrInFlight = errors.New("request already in flight")
)

// LockedError rejects an attempt before any provider call.
type LockedError struct {
	Until  time.Time
	Reason string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("payments locked until %s: %s", e.Until.Format(time.RFC3339), e.Reason)
}

// ChargeInput is one till charge attempt. Card is owned by the service for
// the duration of the call and is zeroized on every exit path.
type ChargeInput struct {
	UserID         uint
	DeviceID       string
	NetworkOrigin  string
	AmountCents    int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
	Card           *card.Data
}

type RefundInput struct {
	UserID         uint
	DeviceID       string
	NetworkOrigin  string
	ChargeID       string
	AmountCents    int64
	Reason         string
	IdempotencyKey string
}

// Service ties the full attempt flow together: lock check, scoped card
// capture, tokenize, idempotency-guarded charge, attempt recording.
type Service struct {
	provider provider.Provider
	idem     *idempotency.Store
	tracker  *fraud.Tracker
}

func NewService(p provider.Provider, idem *idempotency.Store, tracker *fraud.Tracker) *Service {
	return &Service{provider: p, idem: idem, tracker: tracker}
}

// Tokenize exchanges card data for a single-use token, zeroizing the card
// before returning. Used by the draft materialization flow.
func (s *Service) Tokenize(ctx context.Context, c *card.Data) (*provider.Token, error) {
	var tok *provider.Token
	err := card.With(c, func(c *card.Data) error {
		var err error
		tok, err = s.provider.TokenizeCard(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Charge runs one attempt end to end. Declines come back as a ChargeResponse
// with status failed; lockouts, duplicate submissions and validation
// problems come back as errors before the provider is touched. Every
// attempt that reaches the provider is recorded with the tracker, including
// ones that blow up mid-flight.
func (s *Service) Charge(ctx context.Context, in *ChargeInput) (*provider.ChargeResponse, error) {
	if err := s.validate(in); err != nil {
		card.Zeroize(in.Card)
		return nil, err
	}
	key := fraud.Key{UserID: in.UserID, DeviceID: in.DeviceID, NetworkOrigin: in.NetworkOrigin}

	status, err := s.tracker.IsLocked(key)
	if err != nil {
		card.Zeroize(in.Card)
		return nil, err
	}
	if status.Locked {
		card.Zeroize(in.Card)
		return nil, &LockedError{Until: status.Until, Reason: status.Reason}
	}

	chk, err := s.idem.Check(in.IdempotencyKey)
	if err != nil {
		card.Zeroize(in.Card)
		return nil, err
	}
	if chk.Exists {
		card.Zeroize(in.Card)
		switch chk.Status {
		case domain.IdemStatusPending:
			return nil, ErrInFlight
		default:
			var cached provider.ChargeResponse
			if err := json.Unmarshal([]byte(chk.Result), &cached); err != nil {
				return nil, fmt.Errorf("corrupt idempotency record: %w", err)
			}
			return &cached, nil
		}
	}

	var tok *provider.Token
	err = card.With(in.Card, func(c *card.Data) error {
		var err error
		tok, err = s.provider.TokenizeCard(ctx, c)
		return err
	})
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCard) {
			// Bad input, not a provider decline; reject without touching
			// lockout accounting.
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		s.record(key, false, domain.ReasonProcessingError)
		return nil, err
	}

	if err := s.idem.MarkPending(in.IdempotencyKey); err != nil {
		s.record(key, false, domain.ReasonProcessingError)
		return nil, err
	}
	resp, err := s.provider.Charge(ctx, &provider.ChargeRequest{
		Token:          tok.Value,
		AmountCents:    in.AmountCents,
		Currency:       in.Currency,
		Description:    in.Description,
		Metadata:       in.Metadata,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		_ = s.idem.UpdateStatus(in.IdempotencyKey, domain.IdemStatusFailed, "")
		s.record(key, false, domain.ReasonProcessingError)
		return nil, err
	}

	result, _ := json.Marshal(resp)
	idemStatus := domain.IdemStatusCompleted
	if resp.Status != domain.ChargeSucceeded {
		idemStatus = domain.IdemStatusFailed
	}
	if err := s.idem.Store(in.IdempotencyKey, string(result), idemStatus); err != nil {
		s.record(key, false, domain.ReasonProcessingError)
		return nil, err
	}
	s.record(key, resp.Status == domain.ChargeSucceeded, resp.ErrorCode)
	return resp, nil
}

// Refund mirrors Charge without card capture: lock check, idempotency
// guard, provider call, attempt recording.
func (s *Service) Refund(ctx context.Context, in *RefundInput) (*provider.RefundResponse, error) {
	if in.ChargeID == "" || in.IdempotencyKey == "" || in.AmountCents <= 0 {
		return nil, ErrInvalidRequest
	}
	key := fraud.Key{UserID: in.UserID, DeviceID: in.DeviceID, NetworkOrigin: in.NetworkOrigin}

	chk, err := s.idem.Check(in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if chk.Exists {
		switch chk.Status {
		case domain.IdemStatusPending:
			return nil, ErrInFlight
		default:
			var cached provider.RefundResponse
			if err := json.Unmarshal([]byte(chk.Result), &cached); err != nil {
				return nil, fmt.Errorf("corrupt idempotency record: %w", err)
			}
			return &cached, nil
		}
	}
	if err := s.idem.MarkPending(in.IdempotencyKey); err != nil {
		return nil, err
	}
	resp, err := s.provider.Refund(ctx, &provider.RefundRequest{
		ChargeID:       in.ChargeID,
		AmountCents:    in.AmountCents,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		_ = s.idem.UpdateStatus(in.IdempotencyKey, domain.IdemStatusFailed, "")
		s.record(key, false, domain.ReasonProcessingError)
		return nil, err
	}
	result, _ := json.Marshal(resp)
	idemStatus := domain.IdemStatusCompleted
	if resp.Status != domain.ChargeSucceeded {
		idemStatus = domain.IdemStatusFailed
	}
	if err := s.idem.Store(in.IdempotencyKey, string(result), idemStatus); err != nil {
		return nil, err
	}
	s.record(key, resp.Status == domain.ChargeSucceeded, resp.ErrorCode)
	return resp, nil
}

// LockStatus exposes the tracker to the boundary layer.
func (s *Service) LockStatus(userID uint, deviceID, origin string) (fraud.LockStatus, error) {
	return s.tracker.IsLocked(fraud.Key{UserID: userID, DeviceID: deviceID, NetworkOrigin: origin})
}

func (s *Service) validate(in *ChargeInput) error {
	switch {
	case in.AmountCents <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case in.Currency == "":
		return fmt.Errorf("%w: currency required", ErrInvalidRequest)
	case in.IdempotencyKey == "":
		return fmt.Errorf("%w: idempotency key required", ErrInvalidRequest)
	case in.Card == nil:
		return fmt.Errorf("%w: card required", ErrInvalidRequest)
	}
	return nil
}

// record must not mask the primary outcome; tracker failures are logged and
// swallowed.
func (s *Service) record(key fraud.Key, success bool, reason string) {
	if err := s.tracker.Record(key, success, reason); err != nil {
		log.Printf("[pos] record attempt: %v", redact.Redact(err.Error()))
	}
}
