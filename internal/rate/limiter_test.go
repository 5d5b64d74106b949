package rate

import (
	"fmt"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewMemory()
	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("k", 3, time.Minute)
		if !ok {
			t.Fatalf("hit %d rejected", i+1)
		}
	}
	ok, retry := l.Allow("k", 3, time.Minute)
	if ok {
		t.Fatalf("expected rejection past limit")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retry out of range: %v", retry)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewMemory()
	if ok, _ := l.Allow("a", 1, time.Minute); !ok {
		t.Fatalf("first hit on a rejected")
	}
	if ok, _ := l.Allow("a", 1, time.Minute); ok {
		t.Fatalf("second hit on a allowed")
	}
	if ok, _ := l.Allow("b", 1, time.Minute); !ok {
		t.Fatalf("b should have its own window")
	}
}

func TestExpiredWindowResets(t *testing.T) {
	l := NewMemory()
	if ok, _ := l.Allow("k", 1, time.Millisecond); !ok {
		t.Fatalf("first hit rejected")
	}
	time.Sleep(5 * time.Millisecond)
	if ok, _ := l.Allow("k", 1, time.Millisecond); !ok {
		t.Fatalf("expected fresh window after expiry")
	}
}

func TestPruneDropsExpiredWindows(t *testing.T) {
	l := NewMemory()
	for i := 0; i < pruneThreshold; i++ {
		l.Allow(fmt.Sprintf("k%d", i), 1, time.Millisecond)
	}
	time.Sleep(5 * time.Millisecond)
	l.Allow("fresh", 1, time.Minute)
	l.mu.Lock()
	n := len(l.windows)
	l.mu.Unlock()
	if n != 1 {
		t.Fatalf("expected expired windows pruned, have %d", n)
	}
}
