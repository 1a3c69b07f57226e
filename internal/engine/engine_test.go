package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/geometry"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	if !e.SetImage("img_test.png", 800, 600) {
		t.Fatal("SetImage failed")
	}
	e.SetSmoothing(0)
	return e
}

// drawStroke runs a full capture: pointer down on the first point, samples
// for the rest, then pointer up. Returns whether the path changed.
func drawStroke(t *testing.T, e *Engine, pts ...geometry.Point) bool {
	t.Helper()
	if !e.BeginStroke(pts[0]) {
		t.Fatal("BeginStroke refused")
	}
	for _, p := range pts[1:] {
		e.AddSample(p)
	}
	return e.EndStroke()
}

func assertPath(t *testing.T, e *Engine, want []geometry.Point) {
	t.Helper()
	got := e.Path()
	if len(got) != len(want) {
		t.Fatalf("path = %v, want %v", got, want)
	}
	for i := range got {
		if math.Abs(got[i].X-want[i].X) > 1e-6 || math.Abs(got[i].Y-want[i].Y) > 1e-6 {
			t.Fatalf("path[%d] = %v, want %v (full path %v)", i, got[i], want[i], got)
		}
	}
}

func TestStrokeRefusedWithoutImage(t *testing.T) {
	e := NewEngine()
	if e.BeginStroke(geometry.Point{X: 1, Y: 1}) {
		t.Error("BeginStroke should be refused with no image loaded")
	}
}

func TestStraightStrokeCollapsesToEndpoints(t *testing.T) {
	e := newTestEngine(t)
	if !drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 20, Y: 0}, geometry.Point{X: 40, Y: 0}, geometry.Point{X: 60, Y: 0}) {
		t.Fatal("stroke did not commit")
	}
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 60, Y: 0}})
}

func TestSampleDecimation(t *testing.T) {
	e := newTestEngine(t)
	if !e.BeginStroke(geometry.Point{X: 0, Y: 0}) {
		t.Fatal("BeginStroke refused")
	}
	if e.AddSample(geometry.Point{X: 1, Y: 0}) {
		t.Error("sample 1px from the last should be dropped")
	}
	if !e.AddSample(geometry.Point{X: 2, Y: 0}) {
		t.Error("sample 2px from the last should be kept")
	}
	if e.AddSample(geometry.Point{X: 3, Y: 0}) {
		t.Error("decimation should measure from the last kept sample")
	}
	e.CancelStroke()
}

func TestCancelStrokeKeepsPath(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 50, Y: 0})
	before := e.Path()

	if !e.BeginStroke(geometry.Point{X: 100, Y: 100}) {
		t.Fatal("BeginStroke refused")
	}
	e.AddSample(geometry.Point{X: 150, Y: 150})
	e.CancelStroke()

	assertPath(t, e, before)
	if e.Capturing() {
		t.Error("engine still capturing after cancel")
	}
	if e.Preview() != nil {
		t.Error("preview should be nil after cancel")
	}
}

func TestSinglePointStrokeDiscarded(t *testing.T) {
	e := newTestEngine(t)
	if !e.BeginStroke(geometry.Point{X: 10, Y: 10}) {
		t.Fatal("BeginStroke refused")
	}
	if e.EndStroke() {
		t.Error("a stroke that smooths to fewer than 2 points should not commit")
	}
	if e.PathLen() != 0 {
		t.Errorf("path should stay empty, got %v", e.Path())
	}
}

func TestNearbyStrokeContinuesPath(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	// Starts 5px from the path's end, inside the continuation gap.
	drawStroke(t, e, geometry.Point{X: 85, Y: 0}, geometry.Point{X: 120, Y: 40}, geometry.Point{X: 160, Y: 0})
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 40, Y: 30}, {X: 80, Y: 0}, {X: 120, Y: 40}, {X: 160, Y: 0}})
}

func TestFarStrokeReplacesPath(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	drawStroke(t, e, geometry.Point{X: 300, Y: 0}, geometry.Point{X: 340, Y: 40}, geometry.Point{X: 380, Y: 0})
	assertPath(t, e, []geometry.Point{{X: 300, Y: 0}, {X: 340, Y: 40}, {X: 380, Y: 0}})
}

func TestSpliceReplacesMiddle(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e,
		geometry.Point{X: 10, Y: 10}, geometry.Point{X: 30, Y: 30}, geometry.Point{X: 50, Y: 10},
		geometry.Point{X: 70, Y: 30}, geometry.Point{X: 90, Y: 10})

	edit := true
	e.ApplyParams(ParamsPatch{EditMode: &edit})

	// A correcting stroke arcing over the middle. Its endpoints land within
	// 3px of committed points 1 and 3.
	if !drawStroke(t, e,
		geometry.Point{X: 32, Y: 28}, geometry.Point{X: 40, Y: 60}, geometry.Point{X: 50, Y: 70},
		geometry.Point{X: 60, Y: 60}, geometry.Point{X: 68, Y: 28}) {
		t.Fatal("splice stroke did not commit")
	}

	got := e.Path()
	want := []geometry.Point{{X: 10, Y: 10}, {X: 32, Y: 28}, {X: 40, Y: 60}, {X: 50, Y: 70}, {X: 60, Y: 60}, {X: 68, Y: 28}, {X: 90, Y: 10}}
	assertPath(t, e, want)

	for i := 1; i < len(got); i++ {
		if geometry.Dist(got[i-1], got[i]) < seamTol {
			t.Errorf("adjacent duplicate at %d: %v", i, got[i])
		}
	}
}

func TestSpliceRejectedBeyondSnap(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 30, Y: 30}, geometry.Point{X: 50, Y: 10})
	before := e.Path()

	edit := true
	e.ApplyParams(ParamsPatch{EditMode: &edit})

	// Both endpoints are far beyond the 50px snap threshold.
	if drawStroke(t, e, geometry.Point{X: 300, Y: 300}, geometry.Point{X: 340, Y: 340}, geometry.Point{X: 400, Y: 300}) {
		t.Error("stroke landing beyond the snap threshold should be rejected")
	}
	assertPath(t, e, before)
}

func TestSpliceBackwardsStroke(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e,
		geometry.Point{X: 10, Y: 10}, geometry.Point{X: 30, Y: 30}, geometry.Point{X: 50, Y: 10},
		geometry.Point{X: 70, Y: 30}, geometry.Point{X: 90, Y: 10})

	edit := true
	e.ApplyParams(ParamsPatch{EditMode: &edit})

	// Drawn end-to-start relative to path order; the projected range still
	// brackets the middle and the stroke is inserted as drawn.
	if !drawStroke(t, e,
		geometry.Point{X: 68, Y: 28}, geometry.Point{X: 50, Y: 70}, geometry.Point{X: 32, Y: 28}) {
		t.Fatal("backwards splice stroke did not commit")
	}
	assertPath(t, e, []geometry.Point{{X: 10, Y: 10}, {X: 68, Y: 28}, {X: 50, Y: 70}, {X: 32, Y: 28}, {X: 90, Y: 10}})
}

func TestCorrectionStrokeKeepsPolylineClean(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 10, Y: 10}, geometry.Point{X: 50, Y: 10}, geometry.Point{X: 90, Y: 10})
	assertPath(t, e, []geometry.Point{{X: 10, Y: 10}, {X: 90, Y: 10}})

	edit := true
	e.ApplyParams(ParamsPatch{EditMode: &edit})

	// A retrace that doubles back onto its own start. Its chord is degenerate,
	// so it folds to two coincident points; the splice must still leave one
	// clean polyline with no adjacent duplicates.
	if !drawStroke(t, e, geometry.Point{X: 50, Y: 10}, geometry.Point{X: 50, Y: 40}, geometry.Point{X: 50, Y: 10}) {
		t.Fatal("correction stroke did not commit")
	}

	got := e.Path()
	if len(got) < 2 {
		t.Fatalf("path degenerated: %v", got)
	}
	for i := 1; i < len(got); i++ {
		if geometry.Dist(got[i-1], got[i]) < seamTol {
			t.Errorf("adjacent duplicate at %d: %v", i, got[i])
		}
	}
	assertPath(t, e, []geometry.Point{{X: 50, Y: 10}, {X: 90, Y: 10}})
}

func TestEmptyPathEditModeStrokeInitializes(t *testing.T) {
	e := newTestEngine(t)
	edit := true
	e.ApplyParams(ParamsPatch{EditMode: &edit})

	if !drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 30, Y: 30}, geometry.Point{X: 60, Y: 0}) {
		t.Fatal("first stroke on an empty path should commit even in edit mode")
	}
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 30, Y: 30}, {X: 60, Y: 0}})
}

func TestDragRelocatesExactly(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	if idx := e.HitAnchor(geometry.Point{X: 41, Y: 31}, 10); idx != 1 {
		t.Fatalf("HitAnchor = %d, want 1", idx)
	}
	if !e.BeginDrag(1) {
		t.Fatal("BeginDrag refused")
	}
	e.DragTo(geometry.Point{X: 42, Y: 35})
	e.DragTo(geometry.Point{X: 44.25, Y: 38.5})
	e.EndDrag()

	// The dragged point lands exactly where the pointer left it; neighbors
	// are untouched.
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 44.25, Y: 38.5}, {X: 80, Y: 0}})
}

func TestHitAnchorMiss(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})
	if idx := e.HitAnchor(geometry.Point{X: 200, Y: 200}, 10); idx != -1 {
		t.Errorf("HitAnchor far away = %d, want -1", idx)
	}
}

func TestGestureMutualExclusion(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	if !e.BeginDrag(1) {
		t.Fatal("BeginDrag refused")
	}
	if e.BeginStroke(geometry.Point{X: 10, Y: 10}) {
		t.Error("BeginStroke should be refused while dragging")
	}
	if e.BeginDrag(0) {
		t.Error("a second BeginDrag should be refused while dragging")
	}
	if e.UndoLast() {
		t.Error("UndoLast should be refused while dragging")
	}
	if e.Clear() {
		t.Error("Clear should be refused while dragging")
	}
	e.EndDrag()

	if !e.BeginStroke(geometry.Point{X: 10, Y: 10}) {
		t.Fatal("BeginStroke refused after drag ended")
	}
	if e.BeginDrag(0) {
		t.Error("BeginDrag should be refused while capturing")
	}
	e.CancelStroke()
}

func TestUndoLast(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	if !e.UndoLast() {
		t.Fatal("UndoLast refused")
	}
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 40, Y: 30}})

	// Undo down to a single point: legal in memory, but unexportable.
	e.UndoLast()
	if e.PathLen() != 1 {
		t.Fatalf("path length = %d, want 1", e.PathLen())
	}
	if _, err := e.Export(); !errors.Is(err, ErrPathTooShort) {
		t.Errorf("Export on 1-point path: err = %v, want ErrPathTooShort", err)
	}

	e.UndoLast()
	if e.UndoLast() {
		t.Error("UndoLast on an empty path should report no change")
	}
}

func TestClear(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	if !e.Clear() {
		t.Fatal("Clear refused")
	}
	if e.PathLen() != 0 {
		t.Errorf("path not empty after Clear: %v", e.Path())
	}
	if e.Clear() {
		t.Error("Clear on an empty path should report no change")
	}
}

func TestSetSmoothingResmoothsPath(t *testing.T) {
	e := newTestEngine(t)
	// Small jitter around a line: survives smoothing 0 (epsilon 2) because
	// the deviations are 4px, but smoothing 1 (epsilon 16) prunes it.
	drawStroke(t, e,
		geometry.Point{X: 0, Y: 0}, geometry.Point{X: 20, Y: 4}, geometry.Point{X: 40, Y: -4},
		geometry.Point{X: 60, Y: 4}, geometry.Point{X: 80, Y: 0})
	if e.PathLen() != 5 {
		t.Fatalf("setup: path length = %d, want 5", e.PathLen())
	}

	if !e.SetSmoothing(1) {
		t.Fatal("SetSmoothing reported no change")
	}
	assertPath(t, e, []geometry.Point{{X: 0, Y: 0}, {X: 80, Y: 0}})
}

func TestPreviewDuringCapture(t *testing.T) {
	e := newTestEngine(t)
	if e.Preview() != nil {
		t.Fatal("preview should be nil while idle")
	}
	e.BeginStroke(geometry.Point{X: 0, Y: 0})
	e.AddSample(geometry.Point{X: 30, Y: 20})
	e.AddSample(geometry.Point{X: 60, Y: 0})

	pv := e.Preview()
	if len(pv) != 3 {
		t.Fatalf("preview = %v, want the 3 smoothed samples", pv)
	}
	if e.PathLen() != 0 {
		t.Error("committed path should be untouched during capture")
	}
	e.EndStroke()
	if e.Preview() != nil {
		t.Error("preview should be nil after the stroke ends")
	}
}

func TestExportPayload(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	corridor := 24
	fade := 0.6
	e.ApplyParams(ParamsPatch{CorridorPx: &corridor, OutsideFade: &fade})

	payload, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if payload.CorridorPx != 24 || payload.OutsideFade != 0.6 || payload.MarkerAlpha != document.DefaultMarkerAlpha {
		t.Errorf("unexpected payload params: %+v", payload)
	}
	if len(payload.Points) != 3 {
		t.Errorf("payload points = %v", payload.Points)
	}

	// The payload owns its points: mutating it must not touch the engine.
	payload.Points[0] = geometry.Point{X: 999, Y: 999}
	if e.Path()[0].X == 999 {
		t.Error("export payload aliases the committed path")
	}
}

func TestExportRefusesNonFinite(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	e.Relocate(1, geometry.Point{X: math.NaN(), Y: 30})
	if _, err := e.Export(); !errors.Is(err, ErrNotFinite) {
		t.Errorf("Export with NaN coordinate: err = %v, want ErrNotFinite", err)
	}
}

func TestSetImageResetsPath(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})

	if !e.SetImage("img_other.png", 1024, 768) {
		t.Fatal("SetImage refused")
	}
	if e.PathLen() != 0 {
		t.Error("switching images should discard the path")
	}
	w, h := e.ImageSize()
	if w != 1024 || h != 768 {
		t.Errorf("ImageSize = %dx%d, want 1024x768", w, h)
	}

	if e.SetImage("img_bad.png", 0, -1) {
		t.Error("SetImage should refuse non-positive dimensions")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	drawStroke(t, e, geometry.Point{X: 0, Y: 0}, geometry.Point{X: 40, Y: 30}, geometry.Point{X: 80, Y: 0})
	corridor := 18
	e.ApplyParams(ParamsPatch{CorridorPx: &corridor})

	doc := e.Document()

	e2 := NewEngine()
	e2.LoadDocument(doc)
	assertPath(t, e2, e.Path())
	if e2.Params() != e.Params() {
		t.Errorf("params after round trip = %+v, want %+v", e2.Params(), e.Params())
	}
	if !e2.HasImage() {
		t.Error("image dimensions lost in round trip")
	}

	// The snapshot owns its points.
	doc.Points[0] = geometry.Point{X: 555, Y: 555}
	if e.Path()[0].X == 555 {
		t.Error("document snapshot aliases the committed path")
	}
}

func TestLoadDocumentClampsParams(t *testing.T) {
	e := NewEngine()
	doc := document.NewEmptyDocument("img_x.png", 100, 100)
	doc.Params.CorridorPx = -3
	doc.Params.Smoothing = 9
	e.LoadDocument(doc)

	got := e.Params()
	if got.CorridorPx != 1 || got.Smoothing != 1 {
		t.Errorf("params not clamped on load: %+v", got)
	}
}
