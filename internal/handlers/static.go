package handlers

import (
	_ "embed"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/disintegration/imaging"
)

//go:embed static/index.html
var indexHTML []byte

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write(indexHTML); err != nil {
		slog.Error("Unable to write index page", "err", err)
	}
}

// HandleImage serves the current image. Decoded frames are re-encoded as
// JPEG so formats browsers cannot show (TIFF, BMP) still display.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frame := h.triage.CurrentFrame()
	if frame == nil || frame.Image == nil {
		path := h.triage.CurrentPath()
		slog.Debug("Serving image file", "path", path)
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, filepath.Clean(path))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if err := imaging.Encode(w, frame.Image, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		slog.Error("Unable to encode image", "err", err)
	}
}
