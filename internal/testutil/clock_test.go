package testutil

import (
	"testing"
	"time"
)

func TestFixedClock(t *testing.T) {
	c := FixedClock()
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}

	c.Advance(90 * time.Minute)
	if got := c.Now(); !got.Equal(want.Add(90 * time.Minute)) {
		t.Errorf("after Advance, Now() = %v", got)
	}
	if got := FixedClock().Now(); !got.Equal(want) {
		t.Errorf("FixedClock() shares state: %v", got)
	}
}
