// Package memory provides in-memory implementations of the per-concern
// store interfaces. They are the default backing for a single till (the
// DSN-less deployment) and the fakes used by tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"tillpay/internal/domain"
	"tillpay/internal/fraud"
	"tillpay/internal/models"
)

// IdempotencyStore implements idempotency.RecordStore.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]models.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{records: make(map[string]models.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(key string) (*models.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *IdempotencyStore) Put(rec *models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = *rec
	return nil
}

func (s *IdempotencyStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *IdempotencyStore) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, rec := range s.records {
		if rec.Timestamp.Before(cutoff) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

// AttemptStore implements fraud.AttemptStore.
type AttemptStore struct {
	mu      sync.Mutex
	nextID  uint
	records []models.AttemptRecord
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Append(rec *models.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, *rec)
	return nil
}

func matchesKey(r models.AttemptRecord, key fraud.Key) bool {
	return r.UserID == key.UserID && r.DeviceID == key.DeviceID && r.NetworkOrigin == key.NetworkOrigin
}

func (s *AttemptStore) ListSince(key fraud.Key, since time.Time) ([]models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AttemptRecord
	for _, r := range s.records {
		if matchesKey(r, key) && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *AttemptStore) ListAllSince(since time.Time) ([]models.AttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AttemptRecord
	for _, r := range s.records {
		if !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *AttemptStore) DeleteBefore(key fraud.Key, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, r := range s.records {
		if matchesKey(r, key) && r.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

// LockStore implements fraud.LockStore.
type LockStore struct {
	mu    sync.Mutex
	locks map[fraud.Key]models.PaymentLock
}

func NewLockStore() *LockStore {
	return &LockStore{locks: make(map[fraud.Key]models.PaymentLock)}
}

func (s *LockStore) Get(key fraud.Key) (*models.PaymentLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		return nil, nil
	}
	return &lock, nil
}

func (s *LockStore) Put(lock *models.PaymentLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fraud.Key{UserID: lock.UserID, DeviceID: lock.DeviceID, NetworkOrigin: lock.NetworkOrigin}
	s.locks[key] = *lock
	return nil
}

func (s *LockStore) Delete(key fraud.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key)
	return nil
}

func (s *LockStore) DeleteByUser(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.locks {
		if k.UserID == userID {
			delete(s.locks, k)
		}
	}
	return nil
}

func (s *LockStore) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = make(map[fraud.Key]models.PaymentLock)
	return nil
}

func (s *LockStore) CountActive(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, lock := range s.locks {
		if lock.Until.After(now) {
			n++
		}
	}
	return n, nil
}

// DraftStore implements queue.DraftStore.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]models.PaymentIntentDraft
}

func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]models.PaymentIntentDraft)}
}

func (s *DraftStore) Put(d *models.PaymentIntentDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = *d
	return nil
}

func (s *DraftStore) Get(id string) (*models.PaymentIntentDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *DraftStore) ListByUser(userID uint) ([]models.PaymentIntentDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentIntentDraft
	for _, d := range s.drafts {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *DraftStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

func (s *DraftStore) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, d := range s.drafts {
		if d.CreatedAt.Before(cutoff) {
			delete(s.drafts, id)
			n++
		}
	}
	return n, nil
}

func (s *DraftStore) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.drafts)), nil
}

// TransactionStore implements queue.TransactionStore. Put replaces the
// whole row under one lock, which is the atomic per-id upsert the ordering
// guarantee needs.
type TransactionStore struct {
	mu  sync.Mutex
	txs map[string]models.QueuedTransaction
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[string]models.QueuedTransaction)}
}

func (s *TransactionStore) Put(tx *models.QueuedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[tx.ID] = *tx
	return nil
}

func (s *TransactionStore) Get(id string) (*models.QueuedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *TransactionStore) ListDue(status string, now time.Time) ([]models.QueuedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.QueuedTransaction
	for _, tx := range s.txs {
		if tx.Status == status && !tx.NextRetry.After(now) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetry.Before(out[j].NextRetry) })
	return out, nil
}

func (s *TransactionStore) CountPending(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, tx := range s.txs {
		if userID != 0 && tx.UserID != userID {
			continue
		}
		if tx.Status == domain.TxStatusPending || tx.Status == domain.TxStatusProcessing {
			n++
		}
	}
	return n, nil
}

func (s *TransactionStore) DeleteCompletedBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, tx := range s.txs {
		if tx.Status == domain.TxStatusCompleted && tx.UpdatedAt.Before(cutoff) {
			delete(s.txs, id)
			n++
		}
	}
	return n, nil
}

// OperatorStore implements auth.OperatorStore.
type OperatorStore struct {
	mu     sync.Mutex
	nextID uint
	byMail map[string]models.Operator
}

func NewOperatorStore() *OperatorStore {
	return &OperatorStore{byMail: make(map[string]models.Operator)}
}

func (s *OperatorStore) GetByEmail(email string) (*models.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.byMail[email]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (s *OperatorStore) Create(op *models.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	op.ID = s.nextID
	s.byMail[op.Email] = *op
	return nil
}

func (s *OperatorStore) Count() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byMail)), nil
}
