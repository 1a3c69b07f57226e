package geometry

import "math"

// Point is a position in image-pixel space. The Y axis grows downward, as in
// raster images and browser canvases.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PerpDist returns the distance from p to the infinite line through a and b.
// When a and b coincide the line is degenerate and the distance is 0.
func PerpDist(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / math.Hypot(dx, dy)
}

// SegDist returns the distance from p to the closed segment [a, b]. The
// projection parameter is clamped to the segment, so endpoints are honored;
// a zero-length segment degenerates to point distance.
func SegDist(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Dist(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Dist(p, Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// Simplify reduces pts with the Ramer-Douglas-Peucker algorithm: the interior
// point farthest from the chord between the endpoints is found, and if its
// distance exceeds epsilon the polyline is split there and both halves are
// simplified recursively; otherwise the whole run collapses to the two
// endpoints. Ties keep the first (lowest-index) candidate, so the result is
// deterministic. Inputs shorter than 3 points are returned as a copy.
func Simplify(pts []Point, epsilon float64) []Point {
	if len(pts) < 3 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}
	first := pts[0]
	last := pts[len(pts)-1]
	worst := 0
	worstDist := 0.0
	for i := 1; i < len(pts)-1; i++ {
		if d := PerpDist(pts[i], first, last); d > worstDist {
			worst = i
			worstDist = d
		}
	}
	if worstDist <= epsilon || worst == 0 {
		return []Point{first, last}
	}
	left := Simplify(pts[:worst+1], epsilon)
	right := Simplify(pts[worst:], epsilon)
	// The split point appears at the end of left and the start of right.
	return append(left, right[1:]...)
}

// Smooth produces the display polyline for a raw stroke. It simplifies with
// an epsilon derived from factor (factor 0 keeps fine detail, factor 1 prunes
// aggressively), then, when the result still has more than 4 points and the
// factor is positive, applies one pass of weighted local averaging to the
// interior points. Endpoints are never moved. Inputs shorter than 2 points
// are returned as a copy.
func Smooth(pts []Point, factor float64) []Point {
	if len(pts) < 2 {
		out := make([]Point, len(pts))
		copy(out, pts)
		return out
	}
	epsilon := 2 + factor*14
	out := Simplify(pts, epsilon)
	if len(out) <= 4 || factor <= 0 {
		return out
	}
	alpha := 0.15 + factor*0.25
	smoothed := make([]Point, len(out))
	smoothed[0] = out[0]
	smoothed[len(out)-1] = out[len(out)-1]
	for i := 1; i < len(out)-1; i++ {
		smoothed[i] = Point{
			X: out[i].X*(1-2*alpha) + (out[i-1].X+out[i+1].X)*alpha,
			Y: out[i].Y*(1-2*alpha) + (out[i-1].Y+out[i+1].Y)*alpha,
		}
	}
	return smoothed
}

// NearestIndex returns the index of the point in pts closest to q, along with
// that distance. Ties keep the first (lowest-index) point. An empty slice
// yields (-1, +Inf).
func NearestIndex(pts []Point, q Point) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range pts {
		if d := Dist(p, q); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// Dedupe returns a copy of pts with runs of adjacent points closer than tol
// collapsed to their first occurrence. Non-adjacent duplicates are kept: a
// path may legitimately revisit a location.
func Dedupe(pts []Point, tol float64) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		if Dist(out[len(out)-1], p) >= tol {
			out = append(out, p)
		}
	}
	return out
}
