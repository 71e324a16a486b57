package testutil

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

// AssertActiveAt verifies the tour is active with the cursor at index.
func AssertActiveAt(t *testing.T, s *tour.Sequencer, index int) {
	t.Helper()
	st := s.State()
	if !st.Active {
		t.Errorf("expected tour to be active at step %d, but it is inactive", index)
		return
	}
	if st.CurrentIndex != index {
		t.Errorf("expected current index %d, got %d", index, st.CurrentIndex)
	}
}

// AssertInactive verifies the tour is not active.
func AssertInactive(t *testing.T, s *tour.Sequencer) {
	t.Helper()
	if s.State().Active {
		t.Errorf("expected tour to be inactive, at step %d", s.State().CurrentIndex)
	}
}

// AssertMarker verifies the store holds marker under key.
func AssertMarker(t *testing.T, store persist.Store, key, marker string) {
	t.Helper()
	v, err := store.Get(key)
	if err != nil {
		t.Errorf("expected completion marker %q under %q, got error %v", marker, key, err)
		return
	}
	if v != marker {
		t.Errorf("expected completion marker %q under %q, got %q", marker, key, v)
	}
}

// AssertNoMarker verifies key is absent from the store.
func AssertNoMarker(t *testing.T, store persist.Store, key string) {
	t.Helper()
	if v, err := store.Get(key); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected no completion marker under %q, got %q (%v)", key, v, err)
	}
}

// AssertSingleHighlight verifies the highlighter never marked two
// elements at once.
func AssertSingleHighlight(t *testing.T, h *FakeHighlighter) {
	t.Helper()
	if h.Violations != 0 {
		t.Errorf("expected at most one highlighted element at a time, saw %d overlapping highlights (calls: %v)", h.Violations, h.Calls)
	}
}
