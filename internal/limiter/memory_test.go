package limiter

import (
	"testing"
	"time"
)

func TestMemory_LockoutAfterMaxFailures(t *testing.T) {
	t.Parallel()
	now := time.Now()
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if blocked := m.Failure("alice"); blocked {
			t.Fatalf("blocked after %d failures, want not yet", i+1)
		}
	}
	if blocked := m.Failure("alice"); !blocked {
		t.Fatalf("want blocked after 3rd failure")
	}

	ok, rem := m.Allow("alice")
	if ok {
		t.Fatalf("want Allow=false while locked out")
	}
	if rem <= 0 || rem > time.Minute {
		t.Fatalf("remaining = %v, want in (0, 1m]", rem)
	}

	// Other keys are unaffected.
	if ok, _ := m.Allow("bob"); !ok {
		t.Fatalf("unrelated key must be allowed")
	}

	// Lockout expires.
	now = now.Add(2 * time.Minute)
	if ok, _ := m.Allow("alice"); !ok {
		t.Fatalf("want allowed after lockout expiry")
	}
}

func TestMemory_SuccessResets(t *testing.T) {
	t.Parallel()
	m := NewMemory(2, time.Minute)
	m.Failure("alice")
	m.Success("alice")
	if blocked := m.Failure("alice"); blocked {
		t.Fatalf("counter must reset on success")
	}
}

func TestMemory_Disabled(t *testing.T) {
	t.Parallel()
	m := NewMemory(0, time.Minute)
	for i := 0; i < 10; i++ {
		m.Failure("alice")
	}
	if ok, _ := m.Allow("alice"); !ok {
		t.Fatalf("disabled limiter must always allow")
	}
}
