package stroke

import "math"

// SmoothParams configures cursor smoothing.
type SmoothParams struct {
	// HistorySize bounds the sliding window of past smoothed points. A
	// value below 1 disables smoothing entirely.
	HistorySize int
	// Deadzone is the per-axis threshold under which the smoothed position
	// snaps back to the previous one instead of drifting toward
	// sub-threshold jitter.
	Deadzone float64
}

// Smooth low-pass filters a noisy position stream (e.g. a hand tracker)
// through a bounded history of previous outputs. The caller threads the
// history buffer; Smooth never mutates the slice it is given and returns the
// updated buffer alongside the smoothed point.
//
// With HistorySize < 1 the input passes straight through and the history is
// returned untouched. An empty history is seeded with the new point.
func Smooth(history []Point, p Point, params SmoothParams) (Point, []Point) {
	if params.HistorySize < 1 {
		return p, history
	}
	if len(history) == 0 {
		return p, []Point{p}
	}

	last := history[len(history)-1]

	sum := p
	for _, h := range history {
		sum.X += h.X
		sum.Y += h.Y
	}
	n := float64(len(history) + 1)
	smoothed := Point{X: sum.X / n, Y: sum.Y / n}

	// Snap each axis independently: a mean that moved less than the
	// deadzone is jitter, not intent.
	if math.Abs(smoothed.X-last.X) < params.Deadzone {
		smoothed.X = last.X
	}
	if math.Abs(smoothed.Y-last.Y) < params.Deadzone {
		smoothed.Y = last.Y
	}

	updated := append([]Point(nil), history...)
	for len(updated) >= params.HistorySize {
		updated = updated[1:]
	}
	updated = append(updated, smoothed)

	return smoothed, updated
}

// StepToward applies the drawing deadzone gate between the last committed
// stroke point and a candidate. Candidates closer than deadzone are rejected
// as jitter, candidates further than maxJump as tracking glitches. Otherwise
// the returned point lies a fraction distance/maxJump of the way from last
// toward the candidate, so slow movement is damped and fast movement
// followed closely. ok reports whether the candidate survived the gate.
func StepToward(last, candidate Point, deadzone, maxJump float64) (stepped Point, ok bool) {
	d := dist(last, candidate)
	if d < deadzone || d > maxJump {
		return last, false
	}

	factor := math.Min(d/maxJump, 1)
	return Point{
		X: last.X + (candidate.X-last.X)*factor,
		Y: last.Y + (candidate.Y-last.Y)*factor,
	}, true
}
