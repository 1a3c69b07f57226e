package engine

import "github.com/jacob1911/pencil-app/internal/geometry"

// commit merges a finished stroke into the committed path. The raw samples
// are smoothed first; a stroke that smooths to fewer than 2 points is
// discarded. With no committed path the stroke becomes the path. Outside
// edit mode a stroke starting within continueGap of the path's end extends
// it, anything else replaces it. In edit mode the stroke splices into the
// path. Reports whether the path changed.
func (e *Engine) commit(scratch []geometry.Point) bool {
	stroke := geometry.Smooth(scratch, e.params.Smoothing)
	if len(stroke) < 2 {
		return false
	}
	switch {
	case len(e.path) == 0:
		e.path = stroke
	case e.params.EditMode:
		return e.splice(stroke)
	case geometry.Dist(e.path[len(e.path)-1], stroke[0]) < continueGap:
		// Continue the centerline; the stroke's first point stands in for
		// the path's last, so it is skipped.
		e.path = append(e.path, stroke[1:]...)
	default:
		e.path = stroke
	}
	return true
}

// splice replaces the stretch of the committed path between the projections
// of the stroke's endpoints with the stroke itself. Both endpoints must land
// within the snap threshold of an existing committed point, otherwise the
// correction is rejected and the path is left untouched. The projected range
// is orderless: drawing the correction "backwards" relative to path order is
// fine, the stroke is inserted as drawn. Reports whether the path changed.
func (e *Engine) splice(stroke []geometry.Point) bool {
	start, startDist := geometry.NearestIndex(e.path, stroke[0])
	end, endDist := geometry.NearestIndex(e.path, stroke[len(stroke)-1])
	if startDist > e.params.SnapPx || endDist > e.params.SnapPx {
		return false
	}
	if end < start {
		start, end = end, start
	}

	merged := make([]geometry.Point, 0, start+len(stroke)+len(e.path)-end-1)
	merged = append(merged, e.path[:start]...)
	merged = append(merged, stroke...)
	merged = append(merged, e.path[end+1:]...)

	// Splicing can leave coincident points at the seams; collapse them, then
	// re-smooth so the repaired path reads as one continuous line.
	merged = geometry.Dedupe(merged, seamTol)
	merged = geometry.Smooth(merged, e.params.Smoothing)
	if len(merged) < 2 {
		return false
	}
	e.path = merged
	return true
}
