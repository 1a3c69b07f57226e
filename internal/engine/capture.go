package engine

import "github.com/jacob1911/pencil-app/internal/geometry"

// BeginStroke starts capturing a freehand stroke at p. Refused when no base
// image is loaded or another gesture is active. Reports whether the capture
// started.
func (e *Engine) BeginStroke(p geometry.Point) bool {
	if !e.HasImage() || e.g.kind != gestureIdle {
		return false
	}
	e.g = gesture{kind: gestureCapturing}
	e.scratch = []geometry.Point{p}
	return true
}

// AddSample appends a raw pointer sample to the active stroke. Samples closer
// than minSampleGap to the last captured sample are dropped, which keeps slow
// pointer movement from piling up near-duplicate points. Reports whether the
// sample was kept; callers use that to schedule a preview recompute.
func (e *Engine) AddSample(p geometry.Point) bool {
	if e.g.kind != gestureCapturing {
		return false
	}
	if len(e.scratch) > 0 && geometry.Dist(e.scratch[len(e.scratch)-1], p) < minSampleGap {
		return false
	}
	e.scratch = append(e.scratch, p)
	return true
}

// EndStroke finishes the capture and merges the smoothed stroke into the
// committed path. Reports whether the path changed; a stroke that smooths to
// fewer than 2 points, or an edit stroke that misses the path, changes
// nothing.
func (e *Engine) EndStroke() bool {
	if e.g.kind != gestureCapturing {
		return false
	}
	scratch := e.scratch
	e.scratch = nil
	e.g = gesture{}
	return e.commit(scratch)
}

// CancelStroke abandons the capture, leaving the committed path untouched.
func (e *Engine) CancelStroke() {
	if e.g.kind != gestureCapturing {
		return
	}
	e.scratch = nil
	e.g = gesture{}
}
