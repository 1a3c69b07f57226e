package engine

import (
	"errors"
	"math"

	"github.com/jacob1911/pencil-app/internal/geometry"
)

var (
	ErrPathTooShort = errors.New("path needs at least 2 points")
	ErrNotFinite    = errors.New("path contains non-finite coordinates")
)

// ExportPayload is the corridor description handed to the masking and vector
// exporters. Field names are the wire format of the merge endpoint.
type ExportPayload struct {
	Points      []geometry.Point `json:"points"`
	CorridorPx  int              `json:"corridor_px"`
	OutsideFade float64          `json:"outside_fade"`
	MarkerAlpha float64          `json:"marker_alpha"`
}

// Export snapshots the committed path and corridor parameters for export.
// A path with fewer than 2 points or any non-finite coordinate is refused
// rather than handed downstream.
func (e *Engine) Export() (*ExportPayload, error) {
	if len(e.path) < 2 {
		return nil, ErrPathTooShort
	}
	pts := e.Path()
	for _, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return nil, ErrNotFinite
		}
	}
	return &ExportPayload{
		Points:      pts,
		CorridorPx:  e.params.CorridorPx,
		OutsideFade: e.params.OutsideFade,
		MarkerAlpha: e.params.MarkerAlpha,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
