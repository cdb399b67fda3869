package stroke

import (
	"math"
	"math/rand"
	"testing"
)

func sampleCircle(center Point, radius float64, jitter float64, n int) []Point {
	rng := rand.New(rand.NewSource(42))
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		r := radius + (rng.Float64()*2-1)*jitter
		points = append(points, Point{
			X: center.X + r*math.Cos(angle),
			Y: center.Y + r*math.Sin(angle),
		})
	}
	return points
}

func sampleSegment(a, b Point, n int) []Point {
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		points = append(points, Point{
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
		})
	}
	return points
}

func samplePolyline(vertices []Point, perEdge int) []Point {
	var points []Point
	for i := 0; i < len(vertices)-1; i++ {
		seg := sampleSegment(vertices[i], vertices[i+1], perEdge)
		if i > 0 {
			seg = seg[1:]
		}
		points = append(points, seg...)
	}
	return points
}

func TestClassify_TooFewPoints(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("nil input should not classify")
	}
	if Classify([]Point{{1, 1}}) != nil {
		t.Error("single point should not classify")
	}
}

func TestClassify_Circle(t *testing.T) {
	points := sampleCircle(Point{X: 400, Y: 400}, 250, 10, 40)

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type != ShapeCircle {
		t.Fatalf("expected circle, got %s", res.Type)
	}
	if len(res.Points) != 37 {
		t.Errorf("canonical circle should have 37 points (10 degree steps), got %d", len(res.Points))
	}
}

func TestClassify_Line(t *testing.T) {
	points := sampleSegment(Point{X: 10, Y: 10}, Point{X: 300, Y: 150}, 25)

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type != ShapeLine {
		t.Fatalf("expected line, got %s", res.Type)
	}
	if len(res.Points) != 2 {
		t.Errorf("canonical line should be its 2 endpoints, got %d points", len(res.Points))
	}
	// Endpoints are the mutually furthest pair, i.e. the segment ends.
	if res.Points[0] != (Point{X: 10, Y: 10}) && res.Points[1] != (Point{X: 10, Y: 10}) {
		t.Errorf("line endpoints wrong: %+v", res.Points)
	}
}

func TestClassify_Rectangle(t *testing.T) {
	points := samplePolyline([]Point{
		{0, 0}, {300, 0}, {300, 120}, {0, 120}, {0, 0},
	}, 12)

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type != ShapeRectangle {
		t.Fatalf("expected rectangle, got %s", res.Type)
	}
	if len(res.Points) != 5 {
		t.Fatalf("canonical rectangle should be a 5-point closed quad, got %d", len(res.Points))
	}
	if res.Points[0] != res.Points[4] {
		t.Error("rectangle outline must be closed")
	}
}

func TestClassify_Square(t *testing.T) {
	points := samplePolyline([]Point{
		{0, 0}, {200, 0}, {200, 190}, {0, 190}, {0, 0},
	}, 12)

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type != ShapeSquare {
		t.Fatalf("expected square for near-1:1 aspect, got %s", res.Type)
	}
	side := res.Points[1].X - res.Points[0].X
	if side != 200 {
		t.Errorf("square side should be max(w,h)=200, got %v", side)
	}
}

func TestClassify_Triangle(t *testing.T) {
	points := samplePolyline([]Point{
		{0, 200}, {300, 200}, {150, 0}, {0, 200},
	}, 12)

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type != ShapeTriangle {
		t.Fatalf("expected triangle, got %s", res.Type)
	}
	if len(res.Points) != 4 {
		t.Fatalf("canonical triangle is 3 vertices plus closing repeat, got %d points", len(res.Points))
	}
	if res.Points[0] != res.Points[3] {
		t.Error("triangle outline must be closed")
	}
}

func TestClassify_DeterministicAndPure(t *testing.T) {
	points := sampleCircle(Point{X: 300, Y: 300}, 240, 8, 36)
	original := append([]Point(nil), points...)

	first := Classify(points)
	second := Classify(points)

	if first == nil || second == nil {
		t.Fatal("expected classifications")
	}
	if first.Type != second.Type {
		t.Errorf("classification not deterministic: %s vs %s", first.Type, second.Type)
	}
	if len(first.Points) != len(second.Points) {
		t.Fatalf("outline lengths differ: %d vs %d", len(first.Points), len(second.Points))
	}
	for i := range first.Points {
		if first.Points[i] != second.Points[i] {
			t.Fatalf("outline differs at %d: %+v vs %+v", i, first.Points[i], second.Points[i])
		}
	}
	for i := range points {
		if points[i] != original[i] {
			t.Fatalf("Classify mutated its input at %d", i)
		}
	}
}

func TestClassify_ElongatedScribbleIsNotRectangle(t *testing.T) {
	// A long flat zigzag: aspect far beyond 4:1 should force the rectangle
	// score to its floor, leaving line as the winner.
	var points []Point
	for i := 0; i < 40; i++ {
		points = append(points, Point{X: float64(i) * 20, Y: float64(i%2) * 10})
	}

	res := Classify(points)
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Type == ShapeRectangle || res.Type == ShapeSquare {
		t.Errorf("elongated scribble must not classify as %s", res.Type)
	}
}
