package engine

import "github.com/jacob1911/pencil-app/internal/geometry"

// HitAnchor returns the index of the committed point within radius of p, or
// -1 when none is close enough. The nearest point wins, so overlapping
// handles resolve deterministically.
func (e *Engine) HitAnchor(p geometry.Point, radius float64) int {
	idx, d := geometry.NearestIndex(e.path, p)
	if idx < 0 || d > radius {
		return -1
	}
	return idx
}

// BeginDrag starts dragging the committed point at index. Refused while
// another gesture is active or when the index is out of range.
func (e *Engine) BeginDrag(index int) bool {
	if e.g.kind != gestureIdle || index < 0 || index >= len(e.path) {
		return false
	}
	e.g = gesture{kind: gestureDragging, index: index}
	return true
}

// DragTo relocates the dragged point to p. Reports whether a point moved.
func (e *Engine) DragTo(p geometry.Point) bool {
	if e.g.kind != gestureDragging {
		return false
	}
	return e.Relocate(e.g.index, p)
}

// EndDrag finishes the drag. The point keeps its last position; a cancelled
// drag ends the same way, there is nothing to roll back.
func (e *Engine) EndDrag() {
	if e.g.kind != gestureDragging {
		return
	}
	e.g = gesture{}
}
