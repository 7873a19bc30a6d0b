package idempotency

import (
	"testing"
	"time"

	"tillpay/internal/domain"
	"tillpay/internal/store/memory"
)

func testStore(ttl time.Duration) *Store {
	return New(memory.NewIdempotencyStore(), ttl)
}

func TestCheckAbsent(t *testing.T) {
	s := testStore(time.Hour)
	res, err := s.Check("k1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Exists {
		t.Fatalf("unknown key should not exist: %+v", res)
	}
}

func TestStoreThenCheckReplays(t *testing.T) {
	s := testStore(time.Hour)
	if err := s.Store("k1", `{"id":"ch_1"}`, domain.IdemStatusCompleted); err != nil {
		t.Fatalf("store: %v", err)
	}
	res, err := s.Check("k1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Exists || res.Status != domain.IdemStatusCompleted || res.Result != `{"id":"ch_1"}` {
		t.Fatalf("replay mismatch: %+v", res)
	}
}

func TestCheckExpiresAfterTTL(t *testing.T) {
	s := testStore(24 * time.Hour)
	if err := s.Store("k1", "r", domain.IdemStatusCompleted); err != nil {
		t.Fatalf("store: %v", err)
	}
	later := time.Now().Add(25 * time.Hour)
	s.SetClock(func() time.Time { return later })

	res, err := s.Check("k1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Exists {
		t.Fatalf("expired key should be absent: %+v", res)
	}
	// The expired record is deleted, not just hidden.
	s.SetClock(time.Now)
	res, _ = s.Check("k1")
	if res.Exists {
		t.Fatal("expired record should have been deleted")
	}
}

func TestMarkPendingThenFinalize(t *testing.T) {
	s := testStore(time.Hour)
	if err := s.MarkPending("k1"); err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	res, _ := s.Check("k1")
	if !res.Exists || res.Status != domain.IdemStatusPending {
		t.Fatalf("want pending, got %+v", res)
	}
	if err := s.UpdateStatus("k1", domain.IdemStatusFailed, `{"error":"declined"}`); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, _ = s.Check("k1")
	if res.Status != domain.IdemStatusFailed || res.Result != `{"error":"declined"}` {
		t.Fatalf("finalize mismatch: %+v", res)
	}
}

func TestUpdateStatusAbsentIsNoop(t *testing.T) {
	s := testStore(time.Hour)
	if err := s.UpdateStatus("missing", domain.IdemStatusCompleted, "r"); err != nil {
		t.Fatalf("update absent: %v", err)
	}
	res, _ := s.Check("missing")
	if res.Exists {
		t.Fatal("no-op update must not create a record")
	}
}

func TestUpdateStatusKeepsResultWhenEmpty(t *testing.T) {
	s := testStore(time.Hour)
	_ = s.Store("k1", "original", domain.IdemStatusPending)
	if err := s.UpdateStatus("k1", domain.IdemStatusFailed, ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	res, _ := s.Check("k1")
	if res.Result != "original" {
		t.Fatalf("result clobbered: %+v", res)
	}
}

func TestCleanupExpired(t *testing.T) {
	s := testStore(time.Hour)
	_ = s.Store("old", "r", domain.IdemStatusCompleted)
	later := time.Now().Add(2 * time.Hour)
	s.SetClock(func() time.Time { return later })
	_ = s.Store("fresh", "r", domain.IdemStatusCompleted)

	n, err := s.CleanupExpired()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d records, want 1", n)
	}
	if res, _ := s.Check("fresh"); !res.Exists {
		t.Fatal("fresh record should survive the sweep")
	}
}
