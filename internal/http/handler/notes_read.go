package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"notewise/internal/auth"
	"notewise/internal/note"
)

type NoteReadHandler struct {
	Svc *note.Service
}

func (h *NoteReadHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	f := note.ListFilter{
		TagID: strings.TrimSpace(r.URL.Query().Get("tag")),
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if v := boolParam(r, "archived"); v != nil {
		f.Archived = v
	}
	if v := boolParam(r, "favorite"); v != nil {
		f.Favorite = v
	}

	rows, err := h.Svc.List(r.Context(), uid, f)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func (h *NoteReadHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		writeNoteErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(n)
}

func (h *NoteReadHandler) Titles(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	titles, err := h.Svc.TitleDirectory(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if titles == nil {
		titles = []note.NoteTitle{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(titles)
}

func boolParam(r *http.Request, name string) *bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}
