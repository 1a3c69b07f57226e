package geometry

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func pointsEqual(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !approx(a[i].X, b[i].X) || !approx(a[i].Y, b[i].Y) {
			return false
		}
	}
	return true
}

func TestDist(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{1, 2}, Point{1, 2}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-1, -1}, Point{2, 3}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dist(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("Dist(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPerpDist(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"on the line", Point{5, 0}, Point{0, 0}, Point{10, 0}, 0},
		{"above horizontal line", Point{5, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"beyond the segment still measures the line", Point{20, 4}, Point{0, 0}, Point{10, 0}, 4},
		{"diagonal line", Point{0, 2}, Point{0, 0}, Point{2, 2}, math.Sqrt2},
		{"degenerate line", Point{3, 4}, Point{1, 1}, Point{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PerpDist(tt.p, tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("PerpDist(%v, %v, %v) = %v, want %v", tt.p, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSegDist(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"projects inside segment", Point{5, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"clamps to start", Point{-4, 3}, Point{0, 0}, Point{10, 0}, 5},
		{"clamps to end", Point{14, 3}, Point{0, 0}, Point{10, 0}, 5},
		{"zero-length segment", Point{3, 4}, Point{0, 0}, Point{0, 0}, 5},
		{"point on segment", Point{2, 2}, Point{0, 0}, Point{4, 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegDist(tt.p, tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("SegDist(%v, %v, %v) = %v, want %v", tt.p, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimplifyCollinearCollapses(t *testing.T) {
	line := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {10, 0}}
	got := Simplify(line, 0)
	want := []Point{{0, 0}, {10, 0}}
	if !pointsEqual(got, want) {
		t.Errorf("Simplify(collinear, 0) = %v, want %v", got, want)
	}
}

func TestSimplifyKeepsSalientCorner(t *testing.T) {
	pts := []Point{{0, 0}, {5, 0.1}, {10, 8}, {15, 0.1}, {20, 0}}
	got := Simplify(pts, 1)
	if len(got) < 3 {
		t.Fatalf("Simplify dropped the corner: %v", got)
	}
	found := false
	for _, p := range got {
		if approx(p.X, 10) && approx(p.Y, 8) {
			found = true
		}
	}
	if !found {
		t.Errorf("Simplify result %v does not contain the salient point (10, 8)", got)
	}
}

func TestSimplifyEpsilonMonotone(t *testing.T) {
	// A jagged stroke: larger epsilon must never yield more points.
	pts := []Point{
		{0, 0}, {2, 3}, {4, -1}, {6, 5}, {8, 0}, {10, 4},
		{12, -2}, {14, 3}, {16, 0}, {18, 6}, {20, 1},
	}
	prev := len(pts) + 1
	for _, epsVal := range []float64{0, 0.5, 1, 2, 4, 8, 16} {
		n := len(Simplify(pts, epsVal))
		if n > prev {
			t.Fatalf("epsilon %v produced %d points, more than %d at the smaller epsilon", epsVal, n, prev)
		}
		prev = n
	}
}

func TestSimplifyShortInputCopies(t *testing.T) {
	pts := []Point{{1, 1}, {2, 2}}
	got := Simplify(pts, 5)
	if !pointsEqual(got, pts) {
		t.Fatalf("Simplify(short) = %v, want %v", got, pts)
	}
	got[0].X = 99
	if pts[0].X == 99 {
		t.Error("Simplify returned a slice aliasing its input")
	}
}

func TestSimplifyEndpointsSurvive(t *testing.T) {
	pts := []Point{{1, 2}, {4, 9}, {7, 1}, {11, 6}, {13, 2}}
	got := Simplify(pts, 100)
	if len(got) != 2 {
		t.Fatalf("huge epsilon should collapse to endpoints, got %v", got)
	}
	if got[0] != pts[0] || got[1] != pts[len(pts)-1] {
		t.Errorf("endpoints changed: got %v, want [%v %v]", got, pts[0], pts[len(pts)-1])
	}
}

func TestSmoothShortInputCopies(t *testing.T) {
	for _, pts := range [][]Point{nil, {{3, 4}}} {
		got := Smooth(pts, 0.5)
		if !pointsEqual(got, pts) {
			t.Errorf("Smooth(%v) = %v, want a copy of the input", pts, got)
		}
	}
}

func TestSmoothIdempotentOnLine(t *testing.T) {
	line := []Point{{0, 0}, {100, 0}}
	once := Smooth(line, 0.5)
	twice := Smooth(once, 0.5)
	if !pointsEqual(once, twice) {
		t.Errorf("re-smoothing a straight line changed it: %v then %v", once, twice)
	}
	if !pointsEqual(once, line) {
		t.Errorf("smoothing a 2-point line changed it: %v", once)
	}
}

func TestSmoothZeroFactorSkipsAveraging(t *testing.T) {
	// Zig-zag large enough that epsilon 2 keeps every point.
	pts := []Point{{0, 0}, {10, 20}, {20, -20}, {30, 20}, {40, -20}, {50, 0}}
	got := Smooth(pts, 0)
	if !pointsEqual(got, pts) {
		t.Errorf("Smooth(factor 0) moved points: got %v, want %v", got, pts)
	}
}

func TestSmoothAveragesInterior(t *testing.T) {
	// Factor 0.5: epsilon 9, alpha 0.275. Amplitudes are big enough that
	// simplification keeps all six points, so only the averaging pass acts.
	pts := []Point{{0, 0}, {10, 40}, {20, -40}, {30, 40}, {40, -40}, {50, 0}}
	got := Smooth(pts, 0.5)
	if len(got) != len(pts) {
		t.Fatalf("expected all %d points to survive, got %d", len(pts), len(got))
	}
	if got[0] != pts[0] || got[len(got)-1] != pts[len(pts)-1] {
		t.Fatalf("endpoints moved: %v", got)
	}
	alpha := 0.15 + 0.5*0.25
	for i := 1; i < len(pts)-1; i++ {
		wantX := pts[i].X*(1-2*alpha) + (pts[i-1].X+pts[i+1].X)*alpha
		wantY := pts[i].Y*(1-2*alpha) + (pts[i-1].Y+pts[i+1].Y)*alpha
		if !approx(got[i].X, wantX) || !approx(got[i].Y, wantY) {
			t.Errorf("point %d = %v, want (%v, %v)", i, got[i], wantX, wantY)
		}
	}
}

func TestNearestIndex(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {20, 0}}
	tests := []struct {
		name     string
		q        Point
		wantIdx  int
		wantDist float64
	}{
		{"exact hit", Point{10, 0}, 1, 0},
		{"closest to last", Point{19, 5}, 2, math.Hypot(1, 5)},
		{"tie keeps first", Point{5, 0}, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, d := NearestIndex(pts, tt.q)
			if idx != tt.wantIdx || !approx(d, tt.wantDist) {
				t.Errorf("NearestIndex(%v) = (%d, %v), want (%d, %v)", tt.q, idx, d, tt.wantIdx, tt.wantDist)
			}
		})
	}
}

func TestNearestIndexEmpty(t *testing.T) {
	idx, d := NearestIndex(nil, Point{1, 1})
	if idx != -1 || !math.IsInf(d, 1) {
		t.Errorf("NearestIndex(empty) = (%d, %v), want (-1, +Inf)", idx, d)
	}
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		tol  float64
		want []Point
	}{
		{"empty", nil, 0.01, nil},
		{"collapses adjacent run", []Point{{0, 0}, {0, 0.001}, {0, 0.002}, {5, 5}}, 0.01, []Point{{0, 0}, {5, 5}}},
		{"keeps distant points", []Point{{0, 0}, {1, 0}, {2, 0}}, 0.01, []Point{{0, 0}, {1, 0}, {2, 0}}},
		{"keeps non-adjacent revisit", []Point{{0, 0}, {5, 0}, {0, 0}}, 0.01, []Point{{0, 0}, {5, 0}, {0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Dedupe(tt.pts, tt.tol); !pointsEqual(got, tt.want) {
				t.Errorf("Dedupe(%v, %v) = %v, want %v", tt.pts, tt.tol, got, tt.want)
			}
		})
	}
}
