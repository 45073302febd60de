package ids

import (
	"testing"
	"time"
)

func TestNewAt_SameInstantStaysOrdered(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := NewAt(at)
	for i := 0; i < 100; i++ {
		next := NewAt(at)
		if next <= prev {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}
}

func TestNew_Length(t *testing.T) {
	if got := len(New()); got != 26 {
		t.Fatalf("expected 26 chars, got %d", got)
	}
}
