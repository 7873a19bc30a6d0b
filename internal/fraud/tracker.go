package fraud

import (
	"fmt"
	"sync"
	"time"

	"tillpay/internal/domain"
	"tillpay/internal/models"
)

// Key identifies one attempt stream: who, from which till, over which network.
type Key struct {
	UserID        uint
	DeviceID      string
	NetworkOrigin string
}

// AttemptStore persists attempt history. ListSince returns records for one
// key newer than since; ListAllSince spans every key (for stats).
type AttemptStore interface {
	Append(rec *models.AttemptRecord) error
	ListSince(key Key, since time.Time) ([]models.AttemptRecord, error)
	ListAllSince(since time.Time) ([]models.AttemptRecord, error)
	DeleteBefore(key Key, cutoff time.Time) error
}

// LockStore persists lockout state. Get returns (nil, nil) when unlocked.
type LockStore interface {
	Get(key Key) (*models.PaymentLock, error)
	Put(lock *models.PaymentLock) error
	Delete(key Key) error
	DeleteByUser(userID uint) error
	DeleteAll() error
	CountActive(now time.Time) (int, error)
}

// LockStatus is the answer to "may this key attempt a charge right now".
type LockStatus struct {
	Locked            bool      `json:"locked"`
	Until             time.Time `json:"until,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	AttemptsRemaining int       `json:"attempts_remaining"`
}

// Stats aggregates the current fraud window for monitoring.
type Stats struct {
	TotalAttempts  int `json:"total_attempts"`
	FailedAttempts int `json:"failed_attempts"`
	ActiveLocks    int `json:"active_locks"`
	FraudAttempts  int `json:"fraud_attempts"`
}

type Config struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	FraudWindow       time.Duration
}

// Tracker records attempt outcomes per key and computes lockout state.
// The burst heuristics use a fixed 5-minute window inside the fraud window.
type Tracker struct {
	mu       sync.Mutex
	attempts AttemptStore
	locks    LockStore
	cfg      Config
	now      func() time.Time
}

const burstWindow = 5 * time.Minute

func NewTracker(attempts AttemptStore, locks LockStore, cfg Config) *Tracker {
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 3
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.FraudWindow <= 0 {
		cfg.FraudWindow = 15 * time.Minute
	}
	return &Tracker{attempts: attempts, locks: locks, cfg: cfg, now: time.Now}
}

// SetClock overrides the clock, for window tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Record appends an attempt, prunes the key's history outside the fraud
// window, and recomputes lock state. A success clears any lock; a failure
// may create one.
func (t *Tracker) Record(key Key, success bool, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	if err := t.attempts.Append(&models.AttemptRecord{
		UserID:        key.UserID,
		DeviceID:      key.DeviceID,
		NetworkOrigin: key.NetworkOrigin,
		Success:       success,
		Reason:        reason,
		CreatedAt:     now,
	}); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if err := t.attempts.DeleteBefore(key, now.Add(-t.cfg.FraudWindow)); err != nil {
		return fmt.Errorf("prune attempts: %w", err)
	}

	if success {
		return t.locks.Delete(key)
	}

	recent, err := t.attempts.ListSince(key, now.Add(-t.cfg.FraudWindow))
	if err != nil {
		return fmt.Errorf("list attempts: %w", err)
	}
	failed := 0
	for _, r := range recent {
		if !r.Success {
			failed++
		}
	}

	var lockReason string
	switch {
	case failed >= t.cfg.MaxFailedAttempts:
		lockReason = "Too many failed attempts"
	case t.fraudIndicated(reason, recent, now):
		lockReason = "Suspicious activity detected"
	default:
		return nil
	}
	return t.locks.Put(&models.PaymentLock{
		UserID:        key.UserID,
		DeviceID:      key.DeviceID,
		NetworkOrigin: key.NetworkOrigin,
		Until:         now.Add(t.cfg.LockoutDuration),
		Reason:        lockReason,
	})
}

// fraudIndicated implements three independent heuristics, any one suffices:
// a high-risk decline reason, more than 5 attempts of any outcome in the
// burst window, or 3+ failures in the burst window.
func (t *Tracker) fraudIndicated(reason string, recent []models.AttemptRecord, now time.Time) bool {
	if _, risky := domain.HighRiskReasons[reason]; risky {
		return true
	}
	cutoff := now.Add(-burstWindow)
	total, failed := 0, 0
	for _, r := range recent {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		if !r.Success {
			failed++
		}
	}
	return total > 5 || failed >= 3
}

// IsLocked reports lock state for a key. An expired lock is deleted and the
// key falls through to remaining-attempt accounting.
func (t *Tracker) IsLocked(key Key) (LockStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	lock, err := t.locks.Get(key)
	if err != nil {
		return LockStatus{}, fmt.Errorf("lock lookup: %w", err)
	}
	if lock != nil {
		if lock.Until.After(now) {
			return LockStatus{Locked: true, Until: lock.Until, Reason: lock.Reason}, nil
		}
		if err := t.locks.Delete(key); err != nil {
			return LockStatus{}, fmt.Errorf("expire lock: %w", err)
		}
	}

	recent, err := t.attempts.ListSince(key, now.Add(-t.cfg.FraudWindow))
	if err != nil {
		return LockStatus{}, fmt.Errorf("list attempts: %w", err)
	}
	failed := 0
	for _, r := range recent {
		if !r.Success {
			failed++
		}
	}
	remaining := t.cfg.MaxFailedAttempts - failed
	if remaining < 0 {
		remaining = 0
	}
	return LockStatus{Locked: false, AttemptsRemaining: remaining}, nil
}

// ClearUserLocks is an administrative override for one user.
func (t *Tracker) ClearUserLocks(userID uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locks.DeleteByUser(userID)
}

// ClearAllLocks drops every lock.
func (t *Tracker) ClearAllLocks() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locks.DeleteAll()
}

// Stats aggregates attempts inside the current fraud window.
func (t *Tracker) Stats() (Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	recent, err := t.attempts.ListAllSince(now.Add(-t.cfg.FraudWindow))
	if err != nil {
		return Stats{}, fmt.Errorf("list attempts: %w", err)
	}
	st := Stats{TotalAttempts: len(recent)}
	for _, r := range recent {
		if !r.Success {
			st.FailedAttempts++
		}
		if _, risky := domain.HighRiskReasons[r.Reason]; risky {
			st.FraudAttempts++
		}
	}
	st.ActiveLocks, err = t.locks.CountActive(now)
	if err != nil {
		return Stats{}, fmt.Errorf("count locks: %w", err)
	}
	return st, nil
}
