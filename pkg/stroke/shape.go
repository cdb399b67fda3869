package stroke

import "math"

// ShapeType identifies a recognized canonical shape family.
type ShapeType string

const (
	ShapeLine      ShapeType = "line"
	ShapeRectangle ShapeType = "rectangle"
	ShapeSquare    ShapeType = "square"
	ShapeCircle    ShapeType = "circle"
	ShapeTriangle  ShapeType = "triangle"
)

// ShapeResult is the outcome of classifying a freehand polyline: the winning
// family and a synthetic canonical outline to draw in its place.
type ShapeResult struct {
	Type   ShapeType `json:"type"`
	Points []Point   `json:"points"`
}

// Thresholds for the geometric scoring below. Distances are in canvas
// pixels.
const (
	straightnessTolerance = 3.0  // collinearity distance for straight-section scan
	minStraightRun        = 3    // a section needs more than this many points
	maxStraightRatio      = 0.10 // circles tolerate at most 10% straight points
	elongatedAspect       = 4.0  // beyond this a bbox is too long for a rectangle
	squareAspectSlack     = 0.25 // |aspect-1| under this makes a square
	circleSteps           = 10   // degrees per generated circle point
)

// Classify scores a point sequence against each shape family and returns the
// winner with its canonical outline, or nil when the input has fewer than
// two points. Pure and deterministic: the input is never mutated and
// identical inputs yield identical results. Candidates are ranked in a fixed
// priority order (line, rectangle, circle, triangle); an exact score tie goes
// to the earlier family.
func Classify(points []Point) *ShapeResult {
	if len(points) < 2 {
		return nil
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	width := maxX - minX
	height := maxY - minY
	center := Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}

	candidates := []struct {
		family ShapeType
		score  float64
	}{
		{ShapeLine, lineScore(points)},
		{ShapeRectangle, rectangleScore(points, minX, maxX, minY, maxY)},
		{ShapeCircle, circleScore(points, center, width, height)},
		{ShapeTriangle, triangleScore(points)},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	switch best.family {
	case ShapeLine:
		start, end := lineEndpoints(points)
		return &ShapeResult{Type: ShapeLine, Points: []Point{start, end}}

	case ShapeRectangle:
		aspect := width / height
		if math.Abs(aspect-1) < squareAspectSlack {
			side := math.Max(width, height)
			return &ShapeResult{Type: ShapeSquare, Points: rectOutline(minX, minY, side, side)}
		}
		return &ShapeResult{Type: ShapeRectangle, Points: rectOutline(minX, minY, width, height)}

	case ShapeCircle:
		radius := math.Min(width, height) / 2
		return &ShapeResult{Type: ShapeCircle, Points: circleOutline(center, radius)}

	default: // ShapeTriangle
		a, b, c := triangleVertices(points)
		return &ShapeResult{Type: ShapeTriangle, Points: []Point{a, b, c, a}}
	}
}

// lineScore rewards low average perpendicular distance to the line through
// the two mutually furthest points, with a length bonus so short noisy
// scribbles do not pass as lines. Lines get a flat 2x preference.
func lineScore(points []Point) float64 {
	start, end := lineEndpoints(points)

	total := 0.0
	for _, p := range points {
		total += distToLine(p, start, end)
	}
	avgDistance := total / float64(len(points))
	straightness := 1 / (1 + avgDistance)

	lengthBonus := math.Min(dist(start, end)/100, 2)

	return straightness * lengthBonus * 2
}

// rectangleScore measures how closely points hug their bounding box. Very
// elongated boxes are almost certainly lines, so they take a heavy penalty.
func rectangleScore(points []Point, minX, maxX, minY, maxY float64) float64 {
	width := maxX - minX
	height := maxY - minY
	aspect := math.Max(width/height, height/width)
	if aspect > elongatedAspect {
		return 0.1
	}

	total := 0.0
	for _, p := range points {
		dx := math.Min(math.Abs(p.X-minX), math.Abs(p.X-maxX))
		dy := math.Min(math.Abs(p.Y-minY), math.Abs(p.Y-maxY))
		total += math.Min(dx, dy)
	}
	return 1 / (1 + total/float64(len(points)))
}

// circleScore measures deviation from the bounding ellipse. True circles
// have no long straight runs, so a stroke whose points sit more than 10%
// inside straight sections is penalized hard, as are very elongated boxes.
func circleScore(points []Point, center Point, width, height float64) float64 {
	straight := 0
	for _, section := range straightSections(points) {
		straight += len(section)
	}
	if float64(straight)/float64(len(points)) > maxStraightRatio {
		return 0.1
	}

	radiusX := width / 2
	radiusY := height / 2
	total := 0.0
	for _, p := range points {
		nx := (p.X - center.X) / radiusX
		ny := (p.Y - center.Y) / radiusY
		total += math.Abs(math.Hypot(nx, ny) - 1)
	}
	avgDeviation := total / float64(len(points))

	ratioPenalty := 1.0
	if math.Max(width/height, height/width) > 2 {
		ratioPenalty = 0.5
	}

	return (1 / (1 + avgDeviation)) * ratioPenalty
}

// triangleScore fits the maximum-area triangle over all point triples and
// measures how closely points follow its edges. Thin triangles (area small
// relative to the longest point-pair distance) are penalized.
func triangleScore(points []Point) float64 {
	start, end := lineEndpoints(points)
	lineLength := dist(start, end)

	a, b, c := triangleVertices(points)
	area := triangleArea(a, b, c)
	if area < lineLength*2 {
		return 0.1
	}

	edges := [3][2]Point{{a, b}, {b, c}, {c, a}}
	total := 0.0
	for _, p := range points {
		min := math.Inf(1)
		for _, e := range edges {
			min = math.Min(min, distToLine(p, e[0], e[1]))
		}
		total += min
	}
	return 1 / (1 + total/float64(len(points)))
}

// lineEndpoints returns the two points that are mutually furthest apart.
func lineEndpoints(points []Point) (Point, Point) {
	start, end := points[0], points[1]
	maxDistance := 0.0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if d := dist(points[i], points[j]); d > maxDistance {
				maxDistance = d
				start, end = points[i], points[j]
			}
		}
	}
	return start, end
}

// triangleVertices finds the three points forming the maximum-area triangle.
// Brute force over all triples; stroke point counts are small after
// simplification.
func triangleVertices(points []Point) (Point, Point, Point) {
	a, b, c := points[0], points[1], points[0]
	maxArea := 0.0
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			for k := j + 1; k < len(points); k++ {
				area := triangleArea(points[i], points[j], points[k])
				if area > maxArea {
					maxArea = area
					a, b, c = points[i], points[j], points[k]
				}
			}
		}
	}
	return a, b, c
}

func triangleArea(p1, p2, p3 Point) float64 {
	return math.Abs((p2.X-p1.X)*(p3.Y-p1.Y)-(p3.X-p1.X)*(p2.Y-p1.Y)) / 2
}

// distToLine is the perpendicular distance from point to the infinite line
// through lineStart and lineEnd. Degenerate lines fall back to point
// distance.
func distToLine(p, lineStart, lineEnd Point) float64 {
	denominator := dist(lineStart, lineEnd)
	if denominator == 0 {
		return dist(p, lineStart)
	}
	numerator := math.Abs(
		(lineEnd.Y-lineStart.Y)*p.X -
			(lineEnd.X-lineStart.X)*p.Y +
			lineEnd.X*lineStart.Y -
			lineEnd.Y*lineStart.X)
	return numerator / denominator
}

// straightSections scans for contiguous runs of points that are collinear
// with their neighbors (three-point test). Only runs longer than
// minStraightRun count.
func straightSections(points []Point) [][]Point {
	var sections [][]Point
	current := []Point{points[0]}

	for i := 1; i < len(points)-1; i++ {
		d := distToLine(points[i], points[i-1], points[i+1])
		if d < straightnessTolerance {
			current = append(current, points[i])
		} else {
			if len(current) > minStraightRun {
				sections = append(sections, current)
			}
			current = []Point{points[i]}
		}
	}

	if len(current) > minStraightRun {
		sections = append(sections, current)
	}
	return sections
}

// circleOutline generates a closed 36-gon at 10 degree steps (37 points, the
// first repeated at the end).
func circleOutline(center Point, radius float64) []Point {
	points := make([]Point, 0, 360/circleSteps+1)
	for deg := 0; deg <= 360; deg += circleSteps {
		angle := float64(deg) * math.Pi / 180
		points = append(points, Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		})
	}
	return points
}

// rectOutline generates the 5-point closed quad for a rectangle.
func rectOutline(x, y, w, h float64) []Point {
	return []Point{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
		{X: x, Y: y},
	}
}
