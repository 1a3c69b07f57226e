package engine

import (
	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/geometry"
)

// Sample decimation and merge thresholds, in image pixels.
const (
	// minSampleGap drops raw pointer samples closer than this to the last
	// captured sample.
	minSampleGap = 1.8
	// continueGap separates "continue the existing centerline" from "start
	// over" when a non-edit stroke begins near the path's end.
	continueGap = 12.0
	// seamTol collapses adjacent duplicate points introduced by splicing.
	seamTol = 0.01
)

type gestureKind int

const (
	gestureIdle gestureKind = iota
	gestureCapturing
	gestureDragging
)

// gesture is the tagged pointer-gesture state. Capturing a stroke and
// dragging an anchor are mutually exclusive; index is meaningful only while
// dragging.
type gesture struct {
	kind  gestureKind
	index int
}

// Engine owns the committed centerline and all in-progress gesture state for
// one tracing session. It is not safe for concurrent use: the session layer
// serializes every call onto a single goroutine, and the wasm build runs on
// the JS event loop.
type Engine struct {
	// Base image natural size; zero until an image is registered.
	imageID string
	imageW  int
	imageH  int

	// Committed centerline, image-pixel space.
	path []geometry.Point

	// Raw samples of the active stroke; nil outside a capture.
	scratch []geometry.Point

	// Active pointer gesture.
	g gesture

	// Session parameters, always clamped.
	params document.Params
}

// NewEngine creates an engine with default parameters and no image.
func NewEngine() *Engine {
	return &Engine{params: document.DefaultParams()}
}

// --- Commands (frontend → backend) ---

// LoadDocument replaces all engine state with the contents of doc. Any active
// gesture is abandoned.
func (e *Engine) LoadDocument(doc *document.TraceDocument) {
	e.imageID = doc.ImageID
	e.imageW = doc.ImageWidth
	e.imageH = doc.ImageHeight
	e.path = make([]geometry.Point, len(doc.Points))
	copy(e.path, doc.Points)
	e.scratch = nil
	e.g = gesture{}
	e.params = doc.Params.Clamped()
}

// SetImage registers the base image the session traces over. Strokes are
// refused until an image is present. Switching images discards the path and
// any active gesture, since its coordinates belong to the old image.
func (e *Engine) SetImage(id string, width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	e.imageID = id
	e.imageW = width
	e.imageH = height
	e.path = nil
	e.scratch = nil
	e.g = gesture{}
	return true
}

// SetSmoothing updates the smoothing factor and re-smooths the committed path
// in place when it has more than 2 points, so the whole centerline reflects
// the new setting. Reports whether the path was re-smoothed.
func (e *Engine) SetSmoothing(factor float64) bool {
	p := e.params
	p.Smoothing = factor
	e.params = p.Clamped()
	if len(e.path) <= 2 {
		return false
	}
	e.path = geometry.Smooth(e.path, e.params.Smoothing)
	return true
}

// ApplyParams merges a partial parameter update into the session parameters.
// A smoothing change goes through SetSmoothing so the path is re-smoothed.
// Reports whether the committed path may have changed as a result.
func (e *Engine) ApplyParams(patch ParamsPatch) bool {
	p := e.params
	if patch.CorridorPx != nil {
		p.CorridorPx = *patch.CorridorPx
	}
	if patch.EditMode != nil {
		p.EditMode = *patch.EditMode
	}
	if patch.SnapPx != nil {
		p.SnapPx = *patch.SnapPx
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if patch.OutsideFade != nil {
		p.OutsideFade = *patch.OutsideFade
	}
	if patch.MarkerAlpha != nil {
		p.MarkerAlpha = *patch.MarkerAlpha
	}
	e.params = p.Clamped()
	if patch.Smoothing != nil {
		return e.SetSmoothing(*patch.Smoothing)
	}
	return false
}

// UndoLast removes the final committed point. Refused while a gesture is
// active so that drag indices stay valid, and on an empty path.
func (e *Engine) UndoLast() bool {
	if e.g.kind != gestureIdle || len(e.path) == 0 {
		return false
	}
	e.path = e.path[:len(e.path)-1]
	return true
}

// Clear discards the committed path. Refused while a gesture is active.
func (e *Engine) Clear() bool {
	if e.g.kind != gestureIdle || len(e.path) == 0 {
		return false
	}
	e.path = nil
	return true
}

// Relocate overwrites the committed point at index with p, exactly as given.
// Dragged anchors get no smoothing and no snapping.
func (e *Engine) Relocate(index int, p geometry.Point) bool {
	if index < 0 || index >= len(e.path) {
		return false
	}
	e.path[index] = p
	return true
}

// --- Queries (frontend ← backend) ---

// HasImage reports whether a base image is registered.
func (e *Engine) HasImage() bool {
	return e.imageW > 0 && e.imageH > 0
}

// ImageSize returns the registered base image's natural dimensions.
func (e *Engine) ImageSize() (int, int) {
	return e.imageW, e.imageH
}

// Path returns a copy of the committed centerline.
func (e *Engine) Path() []geometry.Point {
	out := make([]geometry.Point, len(e.path))
	copy(out, e.path)
	return out
}

// PathLen returns the number of committed points.
func (e *Engine) PathLen() int {
	return len(e.path)
}

// Preview returns the smoothed preview of the in-progress stroke, or nil when
// no capture is active.
func (e *Engine) Preview() []geometry.Point {
	if e.g.kind != gestureCapturing {
		return nil
	}
	return geometry.Smooth(e.scratch, e.params.Smoothing)
}

// Params returns the current session parameters.
func (e *Engine) Params() document.Params {
	return e.params
}

// Capturing reports whether a stroke capture is active.
func (e *Engine) Capturing() bool {
	return e.g.kind == gestureCapturing
}

// Dragging returns the dragged anchor index, or (-1, false) when no drag is
// active.
func (e *Engine) Dragging() (int, bool) {
	if e.g.kind != gestureDragging {
		return -1, false
	}
	return e.g.index, true
}

// Document snapshots the engine state as a persistable document.
func (e *Engine) Document() *document.TraceDocument {
	return &document.TraceDocument{
		ImageID:     e.imageID,
		ImageWidth:  e.imageW,
		ImageHeight: e.imageH,
		Points:      e.Path(),
		Params:      e.params,
	}
}
