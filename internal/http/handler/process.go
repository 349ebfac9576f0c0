package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notewise/internal/auth"
	"notewise/internal/note"
	"notewise/internal/pipeline"
)

type ProcessHandler struct {
	Pipeline *pipeline.Orchestrator
}

type processResp struct {
	Note   *note.Note      `json:"note"`
	Report pipeline.Report `json:"report"`
}

// Process runs the AI pipeline synchronously for one note. Degraded stages
// come back in the report with a 200; only a missing note or empty content
// is an error response.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, rep, err := h.Pipeline.Process(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, rep.Fetch.Reason, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(processResp{Note: n, Report: rep})
}
