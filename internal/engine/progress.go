package engine

import "math"

// ProgressTracker holds the last reported progress fraction and status
// annotation. The raw fraction is stored exactly as reported — the agent is
// allowed to send out-of-range or non-monotonic values, and a later lower
// fraction will visibly rewind the display.
type ProgressTracker struct {
	fraction float64
	status   string
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// Update records the latest reported fraction and optional status.
func (p *ProgressTracker) Update(fraction float64, status string) {
	p.fraction = fraction
	if status != "" {
		p.status = status
	}
}

func (p *ProgressTracker) Fraction() float64 {
	return p.fraction
}

func (p *ProgressTracker) Status() string {
	return p.status
}

// Percent returns the display percentage, clamped to [0, 100].
func (p *ProgressTracker) Percent() int {
	return DisplayPercent(p.fraction)
}

// Reset clears progress back to zero.
func (p *ProgressTracker) Reset() {
	p.fraction = 0
	p.status = ""
}

// DisplayPercent converts a progress fraction to a whole percentage,
// clamping the fraction to [0, 1] for display only.
func DisplayPercent(fraction float64) int {
	clamped := math.Min(math.Max(fraction, 0), 1)
	return int(math.Round(clamped * 100))
}
