package dismiss

import (
	"sync"
	"testing"
)

func TestSetAddContains(t *testing.T) {
	s := New()

	if s.Contains("abc|||100") {
		t.Error("empty set should not contain anything")
	}

	s.Add("abc|||100")
	if !s.Contains("abc|||100") {
		t.Error("expected key to be present after Add")
	}

	// A different instance of the same series is unaffected.
	if s.Contains("abc|||200") {
		t.Error("sibling occurrence should not be dismissed")
	}
}

func TestSetSnapshotIsCopy(t *testing.T) {
	s := New()
	s.Add("k1")

	snap := s.Snapshot()
	snap["k2"] = struct{}{}

	if s.Contains("k2") {
		t.Error("mutating a snapshot must not affect the set")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSetConcurrentAdd(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add("shared")
			s.Contains("shared")
		}()
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}
