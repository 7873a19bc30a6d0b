package fraud_test

import (
	"testing"
	"time"

	"tillpay/internal/domain"
	"tillpay/internal/fraud"
	"tillpay/internal/store/memory"
)

func testTracker() *fraud.Tracker {
	return fraud.NewTracker(memory.NewAttemptStore(), memory.NewLockStore(), fraud.Config{
		MaxFailedAttempts: 3,
		LockoutDuration:   30 * time.Minute,
		FraudWindow:       15 * time.Minute,
	})
}

var key = fraud.Key{UserID: 1, DeviceID: "d1", NetworkOrigin: "10.0.0.1"}

func TestLockoutThreshold(t *testing.T) {
	tr := testTracker()
	for i := 0; i < 2; i++ {
		if err := tr.Record(key, false, domain.ReasonCardDeclined); err != nil {
			t.Fatalf("record: %v", err)
		}
		status, err := tr.IsLocked(key)
		if err != nil {
			t.Fatalf("isLocked: %v", err)
		}
		if status.Locked {
			t.Fatalf("locked after %d failures", i+1)
		}
		if want := 3 - (i + 1); status.AttemptsRemaining != want {
			t.Errorf("attempts remaining %d, want %d", status.AttemptsRemaining, want)
		}
	}
	if err := tr.Record(key, false, domain.ReasonCardDeclined); err != nil {
		t.Fatalf("record: %v", err)
	}
	status, _ := tr.IsLocked(key)
	if !status.Locked {
		t.Fatal("three failures should lock")
	}
	if status.Reason != "Too many failed attempts" {
		t.Errorf("reason %q", status.Reason)
	}
	if !status.Until.After(time.Now()) {
		t.Errorf("until should be in the future: %v", status.Until)
	}
}

func TestSuccessClearsLock(t *testing.T) {
	tr := testTracker()
	for i := 0; i < 3; i++ {
		_ = tr.Record(key, false, domain.ReasonCardDeclined)
	}
	if status, _ := tr.IsLocked(key); !status.Locked {
		t.Fatal("precondition: should be locked")
	}
	if err := tr.Record(key, true, ""); err != nil {
		t.Fatalf("record success: %v", err)
	}
	if status, _ := tr.IsLocked(key); status.Locked {
		t.Fatal("success must clear the lock immediately")
	}
}

// A single high-risk decline locks the key even on the very first attempt.
func TestFraudReasonShortCircuit(t *testing.T) {
	tr := testTracker()
	if err := tr.Record(key, false, domain.ReasonSuspectedFraud); err != nil {
		t.Fatalf("record: %v", err)
	}
	status, _ := tr.IsLocked(key)
	if !status.Locked {
		t.Fatal("suspected_fraud should lock on first attempt")
	}
	if status.Reason != "Suspicious activity detected" {
		t.Errorf("reason %q", status.Reason)
	}
}

func TestBurstHeuristicAnyOutcome(t *testing.T) {
	tr := testTracker()
	// Five successes do not lock (successes clear locks), but a sixth
	// attempt failing within the burst window trips the >5 rule.
	for i := 0; i < 5; i++ {
		_ = tr.Record(key, true, "")
	}
	_ = tr.Record(key, false, domain.ReasonCardDeclined)
	status, _ := tr.IsLocked(key)
	if !status.Locked {
		t.Fatal("more than 5 attempts in 5 minutes should lock")
	}
}

func TestLockExpires(t *testing.T) {
	tr := testTracker()
	base := time.Now()
	tr.SetClock(func() time.Time { return base })
	_ = tr.Record(key, false, domain.ReasonSuspectedFraud)
	if status, _ := tr.IsLocked(key); !status.Locked {
		t.Fatal("precondition: should be locked")
	}
	tr.SetClock(func() time.Time { return base.Add(31 * time.Minute) })
	status, _ := tr.IsLocked(key)
	if status.Locked {
		t.Fatal("lock should expire after the lockout duration")
	}
	// Expired lock is deleted, and the attempt fell out of the fraud
	// window, so remaining attempts are reset.
	if status.AttemptsRemaining != 3 {
		t.Errorf("attempts remaining %d, want 3", status.AttemptsRemaining)
	}
}

func TestWindowPruning(t *testing.T) {
	tr := testTracker()
	base := time.Now()
	tr.SetClock(func() time.Time { return base })
	_ = tr.Record(key, false, domain.ReasonCardDeclined)
	_ = tr.Record(key, false, domain.ReasonCardDeclined)

	// 16 minutes later the earlier failures are outside the fraud window;
	// a new failure alone must not lock.
	tr.SetClock(func() time.Time { return base.Add(16 * time.Minute) })
	_ = tr.Record(key, false, domain.ReasonCardDeclined)
	status, _ := tr.IsLocked(key)
	if status.Locked {
		t.Fatal("stale failures must not count toward the threshold")
	}
	if status.AttemptsRemaining != 2 {
		t.Errorf("attempts remaining %d, want 2", status.AttemptsRemaining)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	tr := testTracker()
	other := fraud.Key{UserID: 1, DeviceID: "d2", NetworkOrigin: "10.0.0.1"}
	for i := 0; i < 3; i++ {
		_ = tr.Record(key, false, domain.ReasonCardDeclined)
	}
	if status, _ := tr.IsLocked(other); status.Locked {
		t.Fatal("another device must not inherit the lock")
	}
}

func TestClearLocks(t *testing.T) {
	tr := testTracker()
	other := fraud.Key{UserID: 2, DeviceID: "d1", NetworkOrigin: "10.0.0.1"}
	_ = tr.Record(key, false, domain.ReasonSuspectedFraud)
	_ = tr.Record(other, false, domain.ReasonSuspectedFraud)

	if err := tr.ClearUserLocks(1); err != nil {
		t.Fatalf("clear user: %v", err)
	}
	if status, _ := tr.IsLocked(key); status.Locked {
		t.Fatal("user 1 lock should be cleared")
	}
	if status, _ := tr.IsLocked(other); !status.Locked {
		t.Fatal("user 2 lock should remain")
	}
	if err := tr.ClearAllLocks(); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if status, _ := tr.IsLocked(other); status.Locked {
		t.Fatal("all locks should be cleared")
	}
}

func TestStats(t *testing.T) {
	tr := testTracker()
	_ = tr.Record(key, true, "")
	_ = tr.Record(key, false, domain.ReasonCardDeclined)
	_ = tr.Record(fraud.Key{UserID: 2, DeviceID: "d9", NetworkOrigin: "10.0.0.9"}, false, domain.ReasonSuspectedFraud)

	st, err := tr.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalAttempts != 3 {
		t.Errorf("total %d, want 3", st.TotalAttempts)
	}
	if st.FailedAttempts != 2 {
		t.Errorf("failed %d, want 2", st.FailedAttempts)
	}
	if st.FraudAttempts != 1 {
		t.Errorf("fraud %d, want 1", st.FraudAttempts)
	}
	if st.ActiveLocks != 1 {
		t.Errorf("active locks %d, want 1", st.ActiveLocks)
	}
}
