package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jacob1911/pencil-app/internal/asset"
	"github.com/jacob1911/pencil-app/internal/geometry"
	"github.com/jacob1911/pencil-app/internal/mask"
	"github.com/jacob1911/pencil-app/internal/vector"
)

// Handler turns a finished trace into downloadable files: the masked PNG
// and vector versions of the centerline.
type Handler struct {
	images *asset.Handler
}

func NewHandler(images *asset.Handler) *Handler {
	return &Handler{images: images}
}

const (
	defaultOutsideFade = 0.8
	defaultMarkerAlpha = 0.7
)

// MergeRequest is the body of POST /export/merge. Fade and marker opacity
// are optional; absent fields get the app defaults rather than zero.
type MergeRequest struct {
	ImageID     string           `json:"image_id"`
	Points      []geometry.Point `json:"points"`
	CorridorPx  int              `json:"corridor_px"`
	OutsideFade *float64         `json:"outside_fade"`
	MarkerAlpha *float64         `json:"marker_alpha"`
}

// Merge bakes the corridor into the uploaded image and streams the result
// back as a PNG attachment.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.ImageID == "" || len(req.Points) == 0 || req.CorridorPx <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing image_id, points, or corridor_px"})
		return
	}

	fade := defaultOutsideFade
	if req.OutsideFade != nil {
		fade = *req.OutsideFade
	}
	markerAlpha := defaultMarkerAlpha
	if req.MarkerAlpha != nil {
		markerAlpha = *req.MarkerAlpha
	}

	f, err := h.images.Open(req.ImageID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return
	}
	base, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		slog.Error("decode base image", "image_id", req.ImageID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("merge failed: %v", err)})
		return
	}

	out, err := mask.Render(base, req.Points, mask.Params{
		CorridorPx:  req.CorridorPx,
		OutsideFade: fade,
		MarkerAlpha: markerAlpha,
	})
	if err != nil {
		if errors.Is(err, mask.ErrTooFewPoints) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "need at least 2 points"})
			return
		}
		slog.Error("render mask", "image_id", req.ImageID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("merge failed: %v", err)})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		slog.Error("encode merged png", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "merge failed: encode"})
		return
	}

	slog.Info("merge export", "image_id", req.ImageID, "points", len(req.Points),
		"corridor_px", req.CorridorPx, "size", buf.Len())
	sendAttachment(w, "image/png", "corridor_masked.png", buf.Bytes())
}

// VectorRequest is the body of the SVG and PDF export endpoints. The page
// size comes from the stored image, so only the ID travels.
type VectorRequest struct {
	ImageID     string           `json:"image_id"`
	Points      []geometry.Point `json:"points"`
	Color       string           `json:"color"`
	StrokeWidth float64          `json:"stroke_width"`
}

func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	req, width, height, ok := h.vectorRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := vector.WriteSVG(&buf, width, height, req.Points, vector.PathStyle{
		Color:       req.Color,
		StrokeWidth: req.StrokeWidth,
	})
	if err != nil {
		vectorError(w, err)
		return
	}
	sendAttachment(w, "image/svg+xml", "corridor_path.svg", buf.Bytes())
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	req, width, height, ok := h.vectorRequest(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := vector.WritePDF(&buf, width, height, req.Points, vector.PathStyle{
		Color:       req.Color,
		StrokeWidth: req.StrokeWidth,
	})
	if err != nil {
		vectorError(w, err)
		return
	}
	sendAttachment(w, "application/pdf", "corridor_path.pdf", buf.Bytes())
}

// vectorRequest decodes a vector export body and resolves the page size
// from the stored image. A false return means the response is written.
func (h *Handler) vectorRequest(w http.ResponseWriter, r *http.Request) (VectorRequest, int, int, bool) {
	var req VectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return req, 0, 0, false
	}
	if req.ImageID == "" || len(req.Points) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing image_id or points"})
		return req, 0, 0, false
	}

	f, err := h.images.Open(req.ImageID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return req, 0, 0, false
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		slog.Error("probe base image", "image_id", req.ImageID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return req, 0, 0, false
	}
	return req, cfg.Width, cfg.Height, true
}

func vectorError(w http.ResponseWriter, err error) {
	if errors.Is(err, vector.ErrTooFewPoints) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "need at least 2 points"})
		return
	}
	slog.Error("vector export", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func sendAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
