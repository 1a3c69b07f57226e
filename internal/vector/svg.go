// Package vector writes the traced centerline as scalable documents for
// print handoff, one page sized to the base image.
package vector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jacob1911/pencil-app/internal/geometry"
)

var ErrTooFewPoints = errors.New("need at least 2 points")

// PathStyle controls how the centerline is stroked. Zero values fall back
// to the app's purple at 3px.
type PathStyle struct {
	Color       string
	StrokeWidth float64
}

func (s PathStyle) normalized() PathStyle {
	if s.Color == "" {
		s.Color = "#8000ff"
	}
	if s.StrokeWidth <= 0 {
		s.StrokeWidth = 3
	}
	return s
}

// WriteSVG writes the centerline as a single stroked SVG path in image
// coordinates.
func WriteSVG(w io.Writer, width, height int, pts []geometry.Point, style PathStyle) error {
	if len(pts) < 2 {
		return ErrTooFewPoints
	}
	style = style.normalized()

	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
`, width, height, width, height)

	var d strings.Builder
	for i, p := range pts {
		if i == 0 {
			fmt.Fprintf(&d, "M%.2f,%.2f", p.X, p.Y)
		} else {
			fmt.Fprintf(&d, " L%.2f,%.2f", p.X, p.Y)
		}
	}

	fmt.Fprintf(w, `<path d="%s" fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" stroke-linejoin="round"/>
`, d.String(), style.Color, style.StrokeWidth)

	_, err := fmt.Fprintln(w, `</svg>`)
	return err
}
