package idempotency

import (
	"fmt"
	"sync"
	"time"

	"tillpay/internal/domain"
	"tillpay/internal/models"
)

// RecordStore is the persistence seam for idempotency records.
// Get returns (nil, nil) when the key is absent.
type RecordStore interface {
	Get(key string) (*models.IdempotencyRecord, error)
	Put(rec *models.IdempotencyRecord) error
	Delete(key string) error
	DeleteBefore(cutoff time.Time) (int64, error)
}

// CheckResult reports what is known about a key. Result is the serialized
// cached response when Status is completed or failed.
type CheckResult struct {
	Exists bool
	Status string
	Result string
}

// Store maps idempotency keys to cached outcomes with lazy TTL expiry.
// Records transition absent -> pending -> {completed, failed}; terminal
// records replay until the TTL returns the key to absent.
type Store struct {
	mu      sync.Mutex
	records RecordStore
	ttl     time.Duration
	now     func() time.Time
}

func New(records RecordStore, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{records: records, ttl: ttl, now: time.Now}
}

// SetClock overrides the clock, for TTL tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Check fails closed: a record past its TTL is deleted and reported absent.
func (s *Store) Check(key string) (CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.records.Get(key)
	if err != nil {
		return CheckResult{}, fmt.Errorf("idempotency check: %w", err)
	}
	if rec == nil {
		return CheckResult{}, nil
	}
	if s.now().Sub(rec.Timestamp) > s.ttl {
		if err := s.records.Delete(key); err != nil {
			return CheckResult{}, fmt.Errorf("idempotency expire: %w", err)
		}
		return CheckResult{}, nil
	}
	return CheckResult{Exists: true, Status: rec.Status, Result: rec.Result}, nil
}

// Store upserts the record, resetting its timestamp.
func (s *Store) Store(key, result, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Put(&models.IdempotencyRecord{
		Key:       key,
		Result:    result,
		Status:    status,
		Timestamp: s.now(),
	})
}

// MarkPending registers a key as in flight.
func (s *Store) MarkPending(key string) error {
	return s.Store(key, "", domain.IdemStatusPending)
}

// UpdateStatus is a no-op when the key is absent. An empty result keeps the
// stored one.
func (s *Store) UpdateStatus(key, status, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.records.Get(key)
	if err != nil {
		return fmt.Errorf("idempotency update: %w", err)
	}
	if rec == nil {
		return nil
	}
	rec.Status = status
	if result != "" {
		rec.Result = result
	}
	rec.Timestamp = s.now()
	return s.records.Put(rec)
}

// CleanupExpired sweeps records older than the TTL. Safe to call
// concurrently with reads and writes.
func (s *Store) CleanupExpired() (int64, error) {
	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	s.mu.Unlock()
	return s.records.DeleteBefore(cutoff)
}
