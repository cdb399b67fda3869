package stroke

import "testing"

func TestSmooth_NoOpWhenDisabled(t *testing.T) {
	history := []Point{{1, 1}, {2, 2}}
	p := Point{X: 50, Y: 60}

	got, updated := Smooth(history, p, SmoothParams{HistorySize: 0, Deadzone: 5})

	if got != p {
		t.Errorf("disabled smoothing must pass the point through, got %+v", got)
	}
	if len(updated) != 2 || updated[0] != (Point{1, 1}) || updated[1] != (Point{2, 2}) {
		t.Errorf("disabled smoothing must not touch history: %+v", updated)
	}
}

func TestSmooth_SeedsEmptyHistory(t *testing.T) {
	p := Point{X: 10, Y: 10}

	got, updated := Smooth(nil, p, SmoothParams{HistorySize: 5, Deadzone: 2})

	if got != p {
		t.Errorf("first point should pass through unchanged, got %+v", got)
	}
	if len(updated) != 1 || updated[0] != p {
		t.Errorf("history should be seeded with the new point: %+v", updated)
	}
}

func TestSmooth_ConvergesOnStaticInput(t *testing.T) {
	params := SmoothParams{HistorySize: 5, Deadzone: 1}
	target := Point{X: 100, Y: 100}

	var history []Point
	var got Point
	// Start the history somewhere else, then feed the same point
	// repeatedly. The mean walks toward the target until the per-axis
	// deviation drops under the deadzone and snaps constant.
	got, history = Smooth(history, Point{X: 0, Y: 0}, params)
	for i := 0; i < 50; i++ {
		got, history = Smooth(history, target, params)
	}

	prev := got
	got, _ = Smooth(history, target, params)
	if got != prev {
		t.Errorf("static input should have converged: %+v then %+v", prev, got)
	}
	// At the fixed point the per-axis step (target-v)/(HistorySize+1) has
	// dropped under the deadzone, bounding each axis by 6 here.
	limit := params.Deadzone * float64(params.HistorySize+1)
	if dx := target.X - got.X; dx < 0 || dx > limit {
		t.Errorf("X did not converge near target: %+v", got)
	}
	if dy := target.Y - got.Y; dy < 0 || dy > limit {
		t.Errorf("Y did not converge near target: %+v", got)
	}
}

func TestSmooth_WindowIsBounded(t *testing.T) {
	params := SmoothParams{HistorySize: 3, Deadzone: 0}

	var history []Point
	for i := 0; i < 20; i++ {
		_, history = Smooth(history, Point{X: float64(i), Y: 0}, params)
		if len(history) > params.HistorySize {
			t.Fatalf("history grew past %d: len=%d", params.HistorySize, len(history))
		}
	}
}

func TestSmooth_DeadzoneSnapsPerAxis(t *testing.T) {
	params := SmoothParams{HistorySize: 5, Deadzone: 3}
	history := []Point{{100, 100}}

	// Big move on X, sub-deadzone move on Y: X follows, Y snaps back.
	got, _ := Smooth(history, Point{X: 140, Y: 101}, params)

	if got.X == 100 {
		t.Error("X axis should have moved")
	}
	if got.Y != 100 {
		t.Errorf("Y axis should snap to previous value, got %v", got.Y)
	}
}

func TestSmooth_DoesNotMutateCallerHistory(t *testing.T) {
	history := []Point{{1, 1}, {2, 2}, {3, 3}}
	snapshot := append([]Point(nil), history...)

	_, _ = Smooth(history, Point{X: 50, Y: 50}, SmoothParams{HistorySize: 3, Deadzone: 1})

	for i := range history {
		if history[i] != snapshot[i] {
			t.Fatalf("Smooth mutated caller history at %d", i)
		}
	}
}
