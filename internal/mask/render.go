// Package mask bakes a traced corridor into its base image: the region
// inside the corridor keeps the original pixels, everything outside fades
// toward white, and a purple ring plus start/end markers outline the route.
package mask

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/jacob1911/pencil-app/internal/geometry"
)

// superSample is the working scale for the corridor and ring masks. Masks
// are rasterized at 2x and downscaled so the corridor edge antialiases.
const superSample = 2

var purple = color.NRGBA{R: 128, G: 0, B: 255, A: 255}

var (
	ErrTooFewPoints = errors.New("need at least 2 points")
	ErrBadCorridor  = errors.New("corridor_px must be positive")
)

type Params struct {
	CorridorPx  int
	OutsideFade float64
	MarkerAlpha float64
}

// Render composites the corridor mask over base and returns the result.
// The centerline points are in image space.
func Render(base image.Image, pts []geometry.Point, p Params) (*image.NRGBA, error) {
	if len(pts) < 2 {
		return nil, ErrTooFewPoints
	}
	if p.CorridorPx <= 0 {
		return nil, ErrBadCorridor
	}
	fade := clamp01(p.OutsideFade)
	markerA := uint8(math.Round(clamp01(p.MarkerAlpha) * 255))

	bounds := base.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	baseN := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(baseN, baseN.Bounds(), base, bounds.Min, draw.Src)

	// Corridor stroke geometry, in supersampled pixels. The ring sits
	// just outside the corridor radius.
	strokeW2 := p.CorridorPx * 2 * superSample
	if strokeW2 < 1 {
		strokeW2 = 1
	}
	edgePx := int(0.5 * float64(p.CorridorPx))
	if edgePx < 2 {
		edgePx = 2
	}
	edgeW2 := edgePx * 2 * superSample
	rIn := float64(strokeW2) / 2
	rOut := float64(strokeW2+edgeW2) / 2

	w2, h2 := w*superSample, h*superSample
	pts2 := make([]geometry.Point, len(pts))
	for i, pt := range pts {
		pts2[i] = geometry.Point{X: pt.X * superSample, Y: pt.Y * superSample}
	}

	field := distanceField(w2, h2, pts2, rOut)
	corridor := downscale(bandMask(field, w2, h2, -1, rIn), w, h)
	ring := downscale(bandMask(field, w2, h2, rIn, rOut), w, h)

	// Fade everything toward white, then restore the base image inside
	// the corridor.
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := out.PixOffset(x, y)
			m := float64(corridor.Pix[corridor.PixOffset(x, y)]) / 255
			for c := 0; c < 3; c++ {
				bv := float64(baseN.Pix[i+c])
				faded := bv + (255-bv)*fade
				out.Pix[i+c] = uint8(faded + (bv-faded)*m + 0.5)
			}
			out.Pix[i+3] = 255
		}
	}

	// The overlay holds the opaque ring, then the markers are stamped
	// into it with their own alpha before the single composite below.
	overlay := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := overlay.PixOffset(x, y)
			overlay.Pix[i] = purple.R
			overlay.Pix[i+1] = purple.G
			overlay.Pix[i+2] = purple.B
			overlay.Pix[i+3] = ring.Pix[ring.PixOffset(x, y)]
		}
	}
	stampMarkers(overlay, pts, p.CorridorPx, markerA)

	for i := 0; i < len(out.Pix); i += 4 {
		a := overlay.Pix[i+3]
		if a == 0 {
			continue
		}
		af := float64(a) / 255
		for c := 0; c < 3; c++ {
			dv := float64(out.Pix[i+c])
			sv := float64(overlay.Pix[i+c])
			out.Pix[i+c] = uint8(dv + (sv-dv)*af + 0.5)
		}
	}

	return out, nil
}

// stampMarkers draws the start triangle and end circle outlines into the
// overlay. Stamping replaces pixels rather than blending, so a marker
// crossing the ring takes the marker's alpha.
func stampMarkers(overlay *image.NRGBA, pts []geometry.Point, corridorPx int, markerA uint8) {
	c := float64(corridorPx)
	p0, p1, pe := pts[0], pts[1], pts[len(pts)-1]

	vx, vy := p1.X-p0.X, p1.Y-p0.Y
	norm := math.Hypot(vx, vy)
	if norm == 0 {
		norm = 1
	}
	ux, uy := vx/norm, vy/norm
	px, py := -uy, ux

	triH := 1.6 * c
	halfBase := 0.8 * c
	tip := geometry.Point{X: p0.X + ux*triH, Y: p0.Y + uy*triH}
	left := geometry.Point{X: p0.X + px*halfBase, Y: p0.Y + py*halfBase}
	right := geometry.Point{X: p0.X - px*halfBase, Y: p0.Y - py*halfBase}

	stroke := int(0.6 * c)
	if stroke < 2 {
		stroke = 2
	}
	stroke /= 3
	if stroke < 1 {
		stroke = 1
	}
	half := float64(stroke) / 2

	col := purple
	col.A = markerA

	segs := [][2]geometry.Point{{tip, left}, {left, right}, {right, tip}}
	for _, seg := range segs {
		stampSegment(overlay, seg[0], seg[1], half, col)
	}
	stampCircle(overlay, pe, float64(int(0.9*c)), half, col)
}

func stampSegment(layer *image.NRGBA, a, b geometry.Point, halfW float64, col color.NRGBA) {
	bounds := layer.Bounds()
	x0, x1 := clampRange(math.Min(a.X, b.X)-halfW, math.Max(a.X, b.X)+halfW, bounds.Dx())
	y0, y1 := clampRange(math.Min(a.Y, b.Y)-halfW, math.Max(a.Y, b.Y)+halfW, bounds.Dy())
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			center := geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if geometry.SegDist(center, a, b) <= halfW {
				setPix(layer, x, y, col)
			}
		}
	}
}

func stampCircle(layer *image.NRGBA, center geometry.Point, radius, halfW float64, col color.NRGBA) {
	bounds := layer.Bounds()
	x0, x1 := clampRange(center.X-radius-halfW, center.X+radius+halfW, bounds.Dx())
	y0, y1 := clampRange(center.Y-radius-halfW, center.Y+radius+halfW, bounds.Dy())
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if math.Abs(geometry.Dist(p, center)-radius) <= halfW {
				setPix(layer, x, y, col)
			}
		}
	}
}

func setPix(layer *image.NRGBA, x, y int, col color.NRGBA) {
	i := layer.PixOffset(x, y)
	layer.Pix[i] = col.R
	layer.Pix[i+1] = col.G
	layer.Pix[i+2] = col.B
	layer.Pix[i+3] = col.A
}

// distanceField returns the min distance from each pixel center to the
// polyline. Pixels farther than reach from every segment stay +Inf; they
// are outside both masks, so their exact distance never matters.
func distanceField(w, h int, pts []geometry.Point, reach float64) []float32 {
	field := make([]float32, w*h)
	inf := float32(math.Inf(1))
	for i := range field {
		field[i] = inf
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		x0, x1 := clampRange(math.Min(a.X, b.X)-reach, math.Max(a.X, b.X)+reach, w)
		y0, y1 := clampRange(math.Min(a.Y, b.Y)-reach, math.Max(a.Y, b.Y)+reach, h)
		for y := y0; y <= y1; y++ {
			cy := float64(y) + 0.5
			for x := x0; x <= x1; x++ {
				d := float32(geometry.SegDist(geometry.Point{X: float64(x) + 0.5, Y: cy}, a, b))
				if idx := y*w + x; d < field[idx] {
					field[idx] = d
				}
			}
		}
	}
	return field
}

// bandMask builds a binary mask of the pixels whose distance lies in
// (inner, outer]. Pass inner < 0 for a solid stroke.
func bandMask(field []float32, w, h int, inner, outer float64) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			d := float64(field[row+x])
			if d > inner && d <= outer {
				mask.Pix[mask.PixOffset(x, y)] = 255
			}
		}
	}
	return mask
}

func downscale(src *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func clampRange(lo, hi float64, n int) (int, int) {
	a := int(math.Floor(lo)) - 1
	b := int(math.Ceil(hi)) + 1
	if a < 0 {
		a = 0
	}
	if b > n-1 {
		b = n - 1
	}
	return a, b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
