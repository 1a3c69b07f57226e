package document

import "github.com/jacob1911/pencil-app/internal/geometry"

// Params are the per-session tracing parameters. They are persisted with the
// document so a reopened trace behaves the way it was drawn.
type Params struct {
	CorridorPx  int     `json:"corridor_px"`
	Smoothing   float64 `json:"smoothing"`
	EditMode    bool    `json:"edit_mode"`
	SnapPx      float64 `json:"snap_px"`
	Color       string  `json:"color"`
	OutsideFade float64 `json:"outside_fade"`
	MarkerAlpha float64 `json:"marker_alpha"`
}

const (
	DefaultCorridorPx  = 30
	DefaultSmoothing   = 0.5
	DefaultSnapPx      = 50.0
	DefaultColor       = "#8000ff"
	DefaultOutsideFade = 0.8
	DefaultMarkerAlpha = 0.7
)

// DefaultParams returns the parameters a fresh session starts with.
func DefaultParams() Params {
	return Params{
		CorridorPx:  DefaultCorridorPx,
		Smoothing:   DefaultSmoothing,
		EditMode:    false,
		SnapPx:      DefaultSnapPx,
		Color:       DefaultColor,
		OutsideFade: DefaultOutsideFade,
		MarkerAlpha: DefaultMarkerAlpha,
	}
}

// Clamped returns a copy of p with every field forced into its legal range.
// Out-of-range values come from hand-edited documents or hostile clients and
// are corrected silently rather than rejected.
func (p Params) Clamped() Params {
	if p.CorridorPx < 1 {
		p.CorridorPx = 1
	}
	p.Smoothing = clamp01(p.Smoothing)
	if p.SnapPx <= 0 {
		p.SnapPx = DefaultSnapPx
	}
	if p.Color == "" {
		p.Color = DefaultColor
	}
	p.OutsideFade = clamp01(p.OutsideFade)
	p.MarkerAlpha = clamp01(p.MarkerAlpha)
	return p
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

// TraceDocument is the persisted shape of one corridor trace: the base image
// it was drawn over, the committed centerline, and the session parameters.
type TraceDocument struct {
	ImageID     string           `json:"image_id"`
	ImageWidth  int              `json:"image_width"`
	ImageHeight int              `json:"image_height"`
	Points      []geometry.Point `json:"points"`
	Params      Params           `json:"params"`
}

// NewEmptyDocument creates a document for a new trace over the given image.
func NewEmptyDocument(imageID string, width, height int) *TraceDocument {
	return &TraceDocument{
		ImageID:     imageID,
		ImageWidth:  width,
		ImageHeight: height,
		Points:      []geometry.Point{},
		Params:      DefaultParams(),
	}
}
