package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/culler/internal/imagelist"
	"github.com/lehigh-university-libraries/culler/internal/models"
	"github.com/lehigh-university-libraries/culler/internal/triage"
)

type Handler struct {
	triage *triage.Service
}

func New(svc *triage.Service) *Handler {
	return &Handler{
		triage: svc,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/current", h.HandleCurrent)
	mux.HandleFunc("/api/image", h.HandleImage)
	mux.HandleFunc("/api/rescan", h.HandleRescan)
	mux.HandleFunc("/api/blacklist", h.HandleBlacklist)
	mux.HandleFunc("/api/", h.HandleAction)
	mux.HandleFunc("/", h.HandleStatic)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeResult reports the outcome of an action along with the view it left
// behind.
func (h *Handler) writeResult(w http.ResponseWriter, err error) {
	resp := models.ActionResponse{View: h.triage.View()}
	if err != nil {
		slog.Error("Action failed", "error", err)
		resp.Error = err.Error()
		w.Header().Set("Content-Type", "application/json")
		if imagelist.IsExhausted(err) {
			w.WriteHeader(http.StatusConflict)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("Unable to encode JSON response", "err", err)
		}
		return
	}
	h.writeJSON(w, resp)
}
