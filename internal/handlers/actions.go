package handlers

import (
	"net/http"
	"strings"
)

func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.triage.View())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAction runs the keep, delete and navigation actions named by the
// last path segment.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action := strings.TrimPrefix(r.URL.Path, "/api/"); action {
	case "keep":
		err = h.triage.Keep()
	case "delete":
		err = h.triage.Delete()
	case "next":
		err = h.triage.Next()
	case "previous":
		h.triage.Previous()
	case "first":
		err = h.triage.First()
	case "last":
		err = h.triage.Last()
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
		return
	}
	h.writeResult(w, err)
}

func (h *Handler) HandleRescan(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeResult(w, h.triage.Rescan())
}

func (h *Handler) HandleBlacklist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.triage.Blacklist())
	case "POST":
		h.triage.BlacklistCurrentDir()
		h.writeJSON(w, h.triage.Blacklist())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
