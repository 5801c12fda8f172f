package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestTryAddOnce(t *testing.T) {
	s := NewAlertedSet()

	if !s.TryAdd("S1") {
		t.Fatal("first TryAdd returned false")
	}
	if s.TryAdd("S1") {
		t.Fatal("second TryAdd returned true")
	}
	if !s.Contains("S1") {
		t.Fatal("Contains(S1) = false after TryAdd")
	}
}

func TestRemoveMakesEligibleAgain(t *testing.T) {
	s := NewAlertedSet()

	s.TryAdd("S1")
	s.Remove("S1")

	if s.Contains("S1") {
		t.Fatal("Contains(S1) = true after Remove")
	}
	if !s.TryAdd("S1") {
		t.Fatal("TryAdd after Remove returned false")
	}
}

func TestTryAddAtomicUnderContention(t *testing.T) {
	s := NewAlertedSet()

	const attempts = 100
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TryAdd("S1") {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Fatalf("%d concurrent TryAdd calls won; want exactly 1", got)
	}
}

func TestIDsSnapshot(t *testing.T) {
	s := NewAlertedSet()
	s.TryAdd("S1")
	s.TryAdd("S2")

	ids := s.IDs()
	if len(ids) != 2 {
		t.Fatalf("IDs() = %v; want 2 entries", ids)
	}
}
