package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tillpay/internal/domain"
	"tillpay/internal/events"
	"tillpay/internal/idempotency"
	"tillpay/internal/models"
	"tillpay/internal/provider"
	"tillpay/internal/redact"
)

var (
	// ErrDraftNotFound is a normal, recoverable condition: the UI should
	// prompt the operator to start over.
	ErrDraftNotFound = errors.New("payment draft not found")
	// ErrQueueInit marks a fatal store failure during manager construction.
	ErrQueueInit = errors.New("queue initialization failed")
)

// DraftStore persists payment intent drafts. Get returns (nil, nil) when
// the draft is absent.
type DraftStore interface {
	Put(d *models.PaymentIntentDraft) error
	Get(id string) (*models.PaymentIntentDraft, error)
	ListByUser(userID uint) ([]models.PaymentIntentDraft, error)
	Delete(id string) error
	DeleteBefore(cutoff time.Time) (int64, error)
	Count() (int64, error)
}

// TransactionStore persists queued transactions. Put is an atomic upsert
// keyed by transaction id, which is what makes per-transaction state
// transitions totally ordered for readers.
type TransactionStore interface {
	Put(tx *models.QueuedTransaction) error
	Get(id string) (*models.QueuedTransaction, error)
	ListDue(status string, now time.Time) ([]models.QueuedTransaction, error)
	CountPending(userID uint) (int64, error)
	DeleteCompletedBefore(cutoff time.Time) (int64, error)
}

type Config struct {
	RetryInterval time.Duration
	MaxAttempts   int
	RetentionDays int
}

// Manager orchestrates the offline draft/queue flow. Drafts never carry
// card data or tokens; a token enters the picture only at Materialize, is
// held in memory for one processing attempt, and is never persisted.
// Anything that falls back into the queue is force-failed into card
// re-entry rather than replayed.
type Manager struct {
	drafts   DraftStore
	txs      TransactionStore
	provider provider.Provider
	idem     *idempotency.Store
	bus      *events.Bus
	cfg      Config
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]string // transaction id -> live token, memory only

	processing atomic.Bool // in-flight latch for ProcessQueue
}

func NewManager(drafts DraftStore, txs TransactionStore, p provider.Provider, idem *idempotency.Store, bus *events.Bus, cfg Config) (*Manager, error) {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}
	if _, err := drafts.Count(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueInit, err)
	}
	if _, err := txs.CountPending(0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueInit, err)
	}
	return &Manager{
		drafts:   drafts,
		txs:      txs,
		provider: p,
		idem:     idem,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
		tokens:   make(map[string]string),
	}, nil
}

// SetClock overrides the clock, for retry and retention tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Manager) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now()
}

// CreateDraft records intent to charge while offline or pre-capture. No
// token is accepted; metadata is scrubbed so a draft can never smuggle
// card fields into storage.
func (m *Manager) CreateDraft(userID uint, amountCents int64, currency, description string, metadata map[string]string) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("amount must be positive")
	}
	if currency == "" {
		return "", fmt.Errorf("currency required")
	}
	d := &models.PaymentIntentDraft{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountCents: amountCents,
		Currency:    currency,
		Description: description,
		Metadata:    marshalMetadata(redact.StringMap(metadata)),
		CreatedAt:   m.clock(),
	}
	if err := m.drafts.Put(d); err != nil {
		return "", fmt.Errorf("store draft: %w", err)
	}
	return d.ID, nil
}

// ListDrafts is a read-only projection of a user's open drafts.
func (m *Manager) ListDrafts(userID uint) ([]models.PaymentIntentDraft, error) {
	return m.drafts.ListByUser(userID)
}

// DiscardDraft drops a draft before materialization, with no side effects.
func (m *Manager) DiscardDraft(draftID string) error {
	d, err := m.drafts.Get(draftID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDraftNotFound
	}
	return m.drafts.Delete(draftID)
}

// Materialize converts a draft into a queued transaction using a freshly
// supplied single-use token. The draft is deleted, the token is parked in
// memory, and when the provider is reachable processing starts immediately
// in the background.
func (m *Manager) Materialize(draftID, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token required")
	}
	d, err := m.drafts.Get(draftID)
	if err != nil {
		return "", fmt.Errorf("load draft: %w", err)
	}
	if d == nil {
		return "", ErrDraftNotFound
	}
	now := m.clock()
	tx := &models.QueuedTransaction{
		ID:             uuid.NewString(),
		UserID:         d.UserID,
		AmountCents:    d.AmountCents,
		Currency:       d.Currency,
		Description:    d.Description,
		Metadata:       d.Metadata,
		IdempotencyKey: uuid.NewString(),
		MaxAttempts:    m.cfg.MaxAttempts,
		NextRetry:      now.Add(m.cfg.RetryInterval),
		Status:         domain.TxStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.txs.Put(tx); err != nil {
		return "", fmt.Errorf("store transaction: %w", err)
	}
	if err := m.drafts.Delete(draftID); err != nil {
		return "", fmt.Errorf("delete draft: %w", err)
	}
	m.mu.Lock()
	m.tokens[tx.ID] = token
	m.mu.Unlock()

	if m.provider.IsAvailable() {
		go m.processTransaction(tx.ID)
	}
	return tx.ID, nil
}

// PendingCount counts transactions in pending or processing; userID 0
// spans all users.
func (m *Manager) PendingCount(userID uint) (int64, error) {
	return m.txs.CountPending(userID)
}

// popToken removes and returns the live token for a transaction, if any.
func (m *Manager) popToken(txID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := m.tokens[txID]
	delete(m.tokens, txID)
	return tok
}

// processTransaction runs one charge attempt for a freshly materialized
// transaction. The token is consumed here whatever the outcome; a
// transaction that lands back in pending has no card material left and
// will be force-failed by the sweep.
func (m *Manager) processTransaction(id string) {
	tx, err := m.txs.Get(id)
	if err != nil || tx == nil {
		log.Printf("[queue] load transaction %s: %v", id, err)
		return
	}
	if tx.Status != domain.TxStatusPending {
		return
	}
	token := m.popToken(id)
	if token == "" {
		m.forceReentry(tx, "no live token available")
		return
	}

	now := m.clock()
	tx.Status = domain.TxStatusProcessing
	tx.Attempts++
	tx.UpdatedAt = now
	if err := m.txs.Put(tx); err != nil {
		log.Printf("[queue] mark processing %s: %v", id, redact.Redact(err.Error()))
		return
	}

	chk, err := m.idem.Check(tx.IdempotencyKey)
	if err != nil {
		m.deferRetry(tx, "idempotency store unavailable")
		return
	}
	if chk.Exists {
		switch chk.Status {
		case domain.IdemStatusCompleted, domain.IdemStatusFailed:
			var cached provider.ChargeResponse
			if err := json.Unmarshal([]byte(chk.Result), &cached); err == nil {
				m.finalize(tx, &cached)
				return
			}
		case domain.IdemStatusPending:
			// Another flight owns this key; leave it alone.
			tx.Status = domain.TxStatusPending
			tx.UpdatedAt = m.clock()
			_ = m.txs.Put(tx)
			return
		}
	}
	if err := m.idem.MarkPending(tx.IdempotencyKey); err != nil {
		m.deferRetry(tx, "idempotency store unavailable")
		return
	}

	meta := unmarshalMetadata(tx.Metadata)
	resp, err := m.provider.Charge(context.Background(), &provider.ChargeRequest{
		Token:          token,
		AmountCents:    tx.AmountCents,
		Currency:       tx.Currency,
		Description:    tx.Description,
		Metadata:       meta,
		IdempotencyKey: tx.IdempotencyKey,
	})
	if err != nil {
		_ = m.idem.UpdateStatus(tx.IdempotencyKey, domain.IdemStatusFailed, "")
		m.deferRetry(tx, "provider unreachable: "+redact.Redact(err.Error()))
		return
	}
	result, _ := json.Marshal(resp)
	status := domain.IdemStatusCompleted
	if resp.Status != domain.ChargeSucceeded {
		status = domain.IdemStatusFailed
	}
	if err := m.idem.Store(tx.IdempotencyKey, string(result), status); err != nil {
		log.Printf("[queue] cache result %s: %v", id, redact.Redact(err.Error()))
	}
	m.finalize(tx, resp)
}

// finalize applies a provider outcome and publishes the lifecycle event.
// State is persisted before the event goes out.
func (m *Manager) finalize(tx *models.QueuedTransaction, resp *provider.ChargeResponse) {
	now := m.clock()
	tx.UpdatedAt = now
	if resp.Status == domain.ChargeSucceeded {
		tx.Status = domain.TxStatusCompleted
		tx.ChargeID = resp.ID
		tx.Error = ""
		if err := m.txs.Put(tx); err != nil {
			log.Printf("[queue] complete %s: %v", tx.ID, redact.Redact(err.Error()))
			return
		}
		m.bus.Publish(events.Event{Type: events.TransactionCompleted, Transaction: tx, Result: resp, At: now})
		return
	}
	tx.Status = domain.TxStatusFailed
	tx.Error = resp.ErrorCode
	if resp.ErrorMessage != "" {
		tx.Error = resp.ErrorCode + ": " + resp.ErrorMessage
	}
	if err := m.txs.Put(tx); err != nil {
		log.Printf("[queue] fail %s: %v", tx.ID, redact.Redact(err.Error()))
		return
	}
	m.bus.Publish(events.Event{Type: events.TransactionFailed, Transaction: tx, Error: tx.Error, At: now})
}

// deferRetry parks a transaction after an infrastructure error. Its token
// is already gone, so the sweep will convert it to card re-entry once
// NextRetry elapses.
func (m *Manager) deferRetry(tx *models.QueuedTransaction, reason string) {
	now := m.clock()
	tx.Status = domain.TxStatusPending
	tx.Error = reason
	tx.NextRetry = now.Add(m.cfg.RetryInterval)
	tx.UpdatedAt = now
	if err := m.txs.Put(tx); err != nil {
		log.Printf("[queue] defer %s: %v", tx.ID, redact.Redact(err.Error()))
	}
}

// forceReentry is the terminal transition for a transaction that reached a
// retry boundary without a live token.
func (m *Manager) forceReentry(tx *models.QueuedTransaction, detail string) {
	now := m.clock()
	tx.Status = domain.TxStatusFailed
	tx.RequiresCardReentry = true
	tx.Error = "card re-entry required: " + detail
	tx.UpdatedAt = now
	if err := m.txs.Put(tx); err != nil {
		log.Printf("[queue] force re-entry %s: %v", tx.ID, redact.Redact(err.Error()))
		return
	}
	m.bus.Publish(events.Event{Type: events.CardReentryRequired, Transaction: tx, Error: tx.Error, At: now})
}

// ProcessQueue is the single entry point for the retry timer and the
// network-online trigger. Concurrent triggers collapse into one run via the
// in-flight latch. Pending transactions past their retry time are never
// re-charged: tokens are single-use and no card data exists to retry with,
// so each one is failed into card re-entry.
func (m *Manager) ProcessQueue() {
	if !m.processing.CompareAndSwap(false, true) {
		return
	}
	defer m.processing.Store(false)

	now := m.clock()
	due, err := m.txs.ListDue(domain.TxStatusPending, now)
	if err != nil {
		log.Printf("[queue] sweep: %v", redact.Redact(err.Error()))
		return
	}
	for i := range due {
		tx := due[i]
		m.popToken(tx.ID) // drop any stale parked token
		m.forceReentry(&tx, "retry window elapsed without a fresh card")
	}
}

// NotifyOnline is the network-reconnect edge trigger.
func (m *Manager) NotifyOnline() {
	go m.ProcessQueue()
}

// Run drives the retry sweep and a daily retention cleanup until stop is
// closed. Sweep errors are logged, never propagated.
func (m *Manager) Run(stop <-chan struct{}) {
	retry := time.NewTicker(m.cfg.RetryInterval)
	retention := time.NewTicker(24 * time.Hour)
	defer retry.Stop()
	defer retention.Stop()
	for {
		select {
		case <-stop:
			return
		case <-retry.C:
			m.ProcessQueue()
		case <-retention.C:
			if _, err := m.Cleanup(m.cfg.RetentionDays); err != nil {
				log.Printf("[queue] cleanup: %v", redact.Redact(err.Error()))
			}
		}
	}
}

// Cleanup deletes completed transactions and unconverted drafts older than
// the retention window. Safe to run concurrently with other operations.
func (m *Manager) Cleanup(olderThanDays int) (int64, error) {
	cutoff := m.clock().AddDate(0, 0, -olderThanDays)
	txn, err := m.txs.DeleteCompletedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup transactions: %w", err)
	}
	dn, err := m.drafts.DeleteBefore(cutoff)
	if err != nil {
		return txn, fmt.Errorf("cleanup drafts: %w", err)
	}
	return txn + dn, nil
}

func marshalMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalMetadata(s string) map[string]string {
	if s == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
