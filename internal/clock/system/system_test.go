package system

import (
	"testing"
	"time"
)

func TestClockNowIsUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().Add(-time.Second)
	got := clk.Now()
	after := time.Now().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestClockDateUsesBrasilia(t *testing.T) {
	t.Parallel()

	// 01:30 UTC is still the previous evening in Brasilia.
	clk := &Clock{now: func() time.Time { return time.Date(2025, 3, 2, 1, 30, 0, 0, time.UTC) }}
	if got := clk.Date(); got != "2025-03-01" {
		t.Fatalf("Date() = %q, want 2025-03-01", got)
	}
	if got := clk.Now(); !got.Equal(time.Date(2025, 3, 2, 1, 30, 0, 0, time.UTC)) {
		t.Fatalf("Now() = %v", got)
	}
}
