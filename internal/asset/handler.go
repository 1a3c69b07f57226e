package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jacob1911/pencil-app/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// imageExts are the upload extensions we accept. Files keep their original
// bytes on disk; exports composite over exactly what the user uploaded.
var imageExts = []string{".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff"}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves image upload and retrieval endpoints.
type Handler struct {
	dir string // directory to store image files
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create image dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /images/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExt(ext) {
		http.Error(w, "unsupported image type (png, jpg, webp, tiff)", http.StatusBadRequest)
		return
	}

	imageID := typeid.NewImageID()
	filename := imageID + ext
	filePath := filepath.Join(h.dir, filename)

	if err := copyFile(filePath, file); err != nil {
		slog.Error("save image file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	// Probe the saved bytes for dimensions. A bad file gets removed again.
	width, height, format, err := probeImage(filePath)
	if err != nil {
		os.Remove(filePath)
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp := UploadResponse{
		ID:     imageID,
		URL:    fmt.Sprintf("/images/%s", filename),
		Width:  width,
		Height: height,
		Type:   format,
		Name:   header.Filename,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored image files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/images/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Image IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Open returns the stored file for an image ID, whatever extension it was
// uploaded with.
func (h *Handler) Open(imageID string) (*os.File, error) {
	if imageID == "" || imageID != filepath.Base(imageID) {
		return nil, fmt.Errorf("invalid image id: %s", imageID)
	}
	for _, ext := range imageExts {
		f, err := os.Open(filepath.Join(h.dir, imageID+ext))
		if err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("image not found: %s", imageID)
}

func allowedExt(ext string) bool {
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

func probeImage(path string) (width, height int, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", err
	}
	return cfg.Width, cfg.Height, format, nil
}

// copyFile copies src reader to a file at dst path.
func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}
