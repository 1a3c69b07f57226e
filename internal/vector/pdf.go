package vector

import (
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/jacob1911/pencil-app/internal/geometry"
)

// WritePDF writes the centerline onto a single PDF page whose point size
// matches the base image, so the path lands exactly where it was drawn.
func WritePDF(w io.Writer, width, height int, pts []geometry.Point, style PathStyle) error {
	if len(pts) < 2 {
		return ErrTooFewPoints
	}
	style = style.normalized()
	r, g, b := parseHexColor(style.Color)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	pdf.AddPage()
	pdf.SetDrawColor(r, g, b)
	pdf.SetLineWidth(style.StrokeWidth)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	for i := 1; i < len(pts); i++ {
		pdf.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
	}

	return pdf.Output(w)
}

// parseHexColor reads #rrggbb (or #rgb) and falls back to the app purple.
func parseHexColor(s string) (r, g, b int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 128, 0, 255
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 128, 0, 255
	}
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff)
}
