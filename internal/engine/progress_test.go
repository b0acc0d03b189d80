package engine

import "testing"

func TestDisplayPercent(t *testing.T) {
	tests := []struct {
		fraction float64
		expected int
	}{
		{-0.2, 0},
		{0, 0},
		{0.005, 1},
		{0.5, 50},
		{0.999, 100},
		{1, 100},
		{1.5, 100},
	}

	for _, tt := range tests {
		if got := DisplayPercent(tt.fraction); got != tt.expected {
			t.Errorf("DisplayPercent(%v) = %d, want %d", tt.fraction, got, tt.expected)
		}
	}
}

func TestProgressTrackerUpdate(t *testing.T) {
	p := NewProgressTracker()
	p.Update(0.05, "initializing")

	if p.Fraction() != 0.05 {
		t.Errorf("Fraction() = %v, want 0.05", p.Fraction())
	}
	if p.Percent() != 5 {
		t.Errorf("Percent() = %d, want 5", p.Percent())
	}
	if p.Status() != "initializing" {
		t.Errorf("Status() = %q, want %q", p.Status(), "initializing")
	}
}

func TestProgressTrackerKeepsStatusOnEmptyUpdate(t *testing.T) {
	p := NewProgressTracker()
	p.Update(0.3, "reading files")
	p.Update(0.6, "")

	if p.Status() != "reading files" {
		t.Errorf("Status() = %q, want retained %q", p.Status(), "reading files")
	}
	if p.Percent() != 60 {
		t.Errorf("Percent() = %d, want 60", p.Percent())
	}
}

func TestProgressTrackerAllowsRewind(t *testing.T) {
	p := NewProgressTracker()
	p.Update(0.8, "")
	p.Update(0.2, "")

	// Non-monotonic input from the agent is displayed as given.
	if p.Percent() != 20 {
		t.Errorf("Percent() = %d, want 20 after rewind", p.Percent())
	}
}

func TestProgressTrackerStoresRawOutOfRange(t *testing.T) {
	p := NewProgressTracker()
	p.Update(1.5, "")
	if p.Fraction() != 1.5 {
		t.Errorf("raw fraction = %v, want 1.5 (clamping is display-only)", p.Fraction())
	}
	if p.Percent() != 100 {
		t.Errorf("Percent() = %d, want 100", p.Percent())
	}
}

func TestProgressTrackerReset(t *testing.T) {
	p := NewProgressTracker()
	p.Update(0.7, "working")
	p.Reset()

	if p.Fraction() != 0 || p.Status() != "" || p.Percent() != 0 {
		t.Errorf("expected zeroed tracker after reset, got %v %q", p.Fraction(), p.Status())
	}
}
