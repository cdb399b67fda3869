// Package stroke implements the client-side drawing pipeline: stroke
// capture and simplification, cursor smoothing, and freehand shape
// recognition. Everything here is pure or state-threaded and safe to call
// from a single input-event loop; there is no internal concurrency.
package stroke

import (
	"math"

	"github.com/google/uuid"
)

// Point is a canvas-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style carries the pen settings active when a stroke begins.
type Style struct {
	Color string
	Width float64
}

// Stroke is a finalized, immutable polyline. Points is never empty once a
// stroke has been committed; a zero-point stroke is never produced by
// Finalize.
type Stroke struct {
	ID     string  `json:"id,omitempty"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Owner  string  `json:"owner,omitempty"`
}

// simplifyTolerance drives the one-pass simplification filter: interior
// points survive when the turning angle exceeds tolerance*0.1 radians or the
// incoming segment is longer than tolerance*5 pixels.
const simplifyTolerance = 2.0

// Builder accumulates points for an in-progress stroke between pen-down and
// pen-up.
type Builder struct {
	stroke Stroke
}

// Begin starts a new stroke seeded with exactly one point.
func Begin(p Point, style Style) *Builder {
	return &Builder{stroke: Stroke{
		ID:     uuid.NewString(),
		Points: []Point{p},
		Color:  style.Color,
		Width:  style.Width,
	}}
}

// SetOwner tags the stroke with an opaque client identifier.
func (b *Builder) SetOwner(owner string) {
	b.stroke.Owner = owner
}

// Append pushes a raw point unconditionally. Used for mouse/touch input,
// where samples are already clean.
func (b *Builder) Append(p Point) {
	b.stroke.Points = append(b.stroke.Points, p)
}

// AppendGated pushes a point through the drawing deadzone gate used for
// gesture-tracked input. Candidates closer than deadzone to the last point
// are dropped as jitter; candidates further than maxJump are dropped as
// tracking glitches. In between, the stroke advances only a fraction of the
// way toward the candidate, the fraction growing with distance so slow
// movement is damped hard and fast movement is followed faithfully.
// Reports whether a point was committed.
func (b *Builder) AppendGated(p Point, deadzone, maxJump float64) bool {
	last := b.stroke.Points[len(b.stroke.Points)-1]
	stepped, ok := StepToward(last, p, deadzone, maxJump)
	if !ok {
		return false
	}
	b.stroke.Points = append(b.stroke.Points, stepped)
	return true
}

// Len reports the number of accumulated points.
func (b *Builder) Len() int {
	return len(b.stroke.Points)
}

// Finalize simplifies the accumulated points and, when detectShapes is set,
// replaces them with a canonical shape outline if one is recognized. Returns
// nil when the buffer holds no points (nothing to commit). A single-point
// stroke (a tap) is kept as-is. After Finalize the stroke is immutable.
func (b *Builder) Finalize(detectShapes bool) *Stroke {
	if len(b.stroke.Points) < 1 {
		return nil
	}

	s := b.stroke
	if len(s.Points) > 2 {
		s.Points = Simplify(s.Points, simplifyTolerance)
	}

	if detectShapes {
		if res := Classify(s.Points); res != nil {
			s.Points = res.Points
		}
	}

	out := s
	out.Points = append([]Point(nil), s.Points...)
	return &out
}

// Simplify runs a single left-to-right pass over points, keeping the first
// and last point always and each interior point only when the direction
// change between its incoming and outgoing segments exceeds tolerance*0.1
// radians, or the incoming segment (measured from the last kept point) is
// longer than tolerance*5. Not Douglas-Peucker: one pass, no recursion. The
// output is never longer than the input and preserves both endpoints
// exactly.
func Simplify(points []Point, tolerance float64) []Point {
	if len(points) <= 2 {
		return points
	}

	result := make([]Point, 0, len(points))
	result = append(result, points[0])

	for i := 1; i < len(points)-1; i++ {
		prev := result[len(result)-1]
		current := points[i]
		next := points[i+1]

		dx1 := current.X - prev.X
		dy1 := current.Y - prev.Y
		dx2 := next.X - current.X
		dy2 := next.Y - current.Y

		angle1 := math.Atan2(dy1, dx1)
		angle2 := math.Atan2(dy2, dx2)
		angleDiff := math.Abs(angle1 - angle2)

		if angleDiff > tolerance*0.1 || math.Hypot(dx1, dy1) > tolerance*5 {
			result = append(result, current)
		}
	}

	result = append(result, points[len(points)-1])
	return result
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
