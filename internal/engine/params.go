package engine

// ParamsPatch is a partial parameter update. Nil fields keep their current
// values, so clients send only what changed.
type ParamsPatch struct {
	CorridorPx  *int     `json:"corridor_px,omitempty"`
	Smoothing   *float64 `json:"smoothing,omitempty"`
	EditMode    *bool    `json:"edit_mode,omitempty"`
	SnapPx      *float64 `json:"snap_px,omitempty"`
	Color       *string  `json:"color,omitempty"`
	OutsideFade *float64 `json:"outside_fade,omitempty"`
	MarkerAlpha *float64 `json:"marker_alpha,omitempty"`
}
