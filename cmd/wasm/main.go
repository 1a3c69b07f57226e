//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/jacob1911/pencil-app/internal/document"
	"github.com/jacob1911/pencil-app/internal/engine"
	"github.com/jacob1911/pencil-app/internal/geometry"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	pencilEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	pencilEngine.Set("loadDocument", js.FuncOf(loadDocument))
	pencilEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	pencilEngine.Set("setImage", js.FuncOf(setImage))
	pencilEngine.Set("pointerDown", js.FuncOf(pointerDown))
	pencilEngine.Set("pointerMove", js.FuncOf(pointerMove))
	pencilEngine.Set("pointerUp", js.FuncOf(pointerUp))
	pencilEngine.Set("pointerCancel", js.FuncOf(pointerCancel))
	pencilEngine.Set("anchorDown", js.FuncOf(anchorDown))
	pencilEngine.Set("anchorMove", js.FuncOf(anchorMove))
	pencilEngine.Set("anchorUp", js.FuncOf(anchorUp))
	pencilEngine.Set("undoLast", js.FuncOf(undoLast))
	pencilEngine.Set("clearPath", js.FuncOf(clearPath))
	pencilEngine.Set("setSmoothing", js.FuncOf(setSmoothing))
	pencilEngine.Set("applyParams", js.FuncOf(applyParams))

	// --- Queries (frontend ← backend) ---
	pencilEngine.Set("getPath", js.FuncOf(getPath))
	pencilEngine.Set("getPreview", js.FuncOf(getPreview))
	pencilEngine.Set("getParams", js.FuncOf(getParams))
	pencilEngine.Set("getDocument", js.FuncOf(getDocument))
	pencilEngine.Set("getExportPayload", js.FuncOf(getExportPayload))
	pencilEngine.Set("hitAnchor", js.FuncOf(hitAnchor))
	pencilEngine.Set("isCapturing", js.FuncOf(isCapturing))
	pencilEngine.Set("screenToImage", js.FuncOf(screenToImage))

	// Register on global scope
	js.Global().Set("pencilEngine", pencilEngine)

	// Signal that WASM is ready
	js.Global().Set("pencilWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal failed"}`
	}
	return string(data)
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	var doc document.TraceDocument
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	eng.LoadDocument(&doc)

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	imageID := "img_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		imageID = args[0].String()
	}
	eng.LoadDocument(document.NewSampleDocument(imageID))

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetImage(args[0].String(), args[1].Int(), args[2].Int()))
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(eng.BeginStroke(p))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(eng.AddSample(p))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.EndStroke())
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	eng.CancelStroke()
	return nil
}

// anchorDown hit-tests the committed path and starts a drag on the anchor
// under the pointer. Returns the anchor index, or -1.
func anchorDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(-1)
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float()}
	idx := eng.HitAnchor(p, args[2].Float())
	if idx < 0 {
		return js.ValueOf(-1)
	}
	if !eng.BeginDrag(idx) {
		return js.ValueOf(-1)
	}
	return js.ValueOf(idx)
}

func anchorMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(false)
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(eng.DragTo(p))
}

func anchorUp(this js.Value, args []js.Value) interface{} {
	eng.EndDrag()
	return nil
}

func undoLast(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.UndoLast())
}

func clearPath(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Clear())
}

func setSmoothing(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.SetSmoothing(args[0].Float()))
}

func applyParams(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	var patch engine.ParamsPatch
	if err := json.Unmarshal([]byte(args[0].String()), &patch); err != nil {
		return js.ValueOf(false)
	}
	return js.ValueOf(eng.ApplyParams(patch))
}

// --- Query Handlers ---

func getPath(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Path()))
}

func getPreview(this js.Value, args []js.Value) interface{} {
	pts := eng.Preview()
	if pts == nil {
		pts = []geometry.Point{}
	}
	return js.ValueOf(toJSON(pts))
}

func getParams(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Params()))
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.Document()))
}

func getExportPayload(this js.Value, args []js.Value) interface{} {
	payload, err := eng.Export()
	if err != nil {
		return js.ValueOf(toJSON(map[string]string{"error": err.Error()}))
	}
	return js.ValueOf(toJSON(payload))
}

func hitAnchor(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(-1)
	}
	p := geometry.Point{X: args[0].Float(), Y: args[1].Float()}
	return js.ValueOf(eng.HitAnchor(p, args[2].Float()))
}

func isCapturing(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Capturing())
}

// screenToImage maps a pointer position on the displayed canvas rect to
// image-space coordinates.
func screenToImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 || !eng.HasImage() {
		return js.ValueOf(toJSON(map[string]string{"error": "no image loaded"}))
	}
	x, y := args[0].Float(), args[1].Float()
	rectX, rectY := args[2].Float(), args[3].Float()
	rectW, rectH := args[4].Float(), args[5].Float()
	if rectW <= 0 || rectH <= 0 {
		return js.ValueOf(toJSON(map[string]string{"error": "empty rect"}))
	}

	imgW, imgH := eng.ImageSize()
	p := geometry.Point{
		X: (x - rectX) * float64(imgW) / rectW,
		Y: (y - rectY) * float64(imgH) / rectH,
	}
	return js.ValueOf(toJSON(p))
}
