package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"notewise/internal/auth"
	"notewise/internal/note"
)

type NoteHandler struct {
	Svc *note.Service
}

type createNoteReq struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	IsFavorite bool   `json:"is_favorite"`
	IsArchived bool   `json:"is_archived"`
}

func (r createNoteReq) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
	)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.Svc.Create(r.Context(), uid, note.CreateNoteInput{
		Title:      req.Title,
		Content:    req.Content,
		Status:     req.Status,
		IsFavorite: req.IsFavorite,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(n)
}

type updateNoteReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	fields := map[string]any{}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			http.Error(w, "title cannot be empty", http.StatusBadRequest)
			return
		}
		fields["title"] = t
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Update(r.Context(), uid, id, fields); err != nil {
		writeNoteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete is the destructive path; clients confirm before calling it. The
// two-phase semantics live in the service.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		writeNoteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleReq struct {
	Value bool `json:"value"`
}

func (h *NoteHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Svc.ToggleFavorite)
}

func (h *NoteHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.Svc.ToggleArchive)
}

func (h *NoteHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID uint64, id string, value bool) error) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := fn(r.Context(), uid, id, req.Value); err != nil {
		writeNoteErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")
	tagID := chi.URLParam(r, "tagID")

	if err := h.Svc.AttachTag(r.Context(), uid, noteID, tagID); err != nil {
		http.Error(w, "could not attach tag", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	noteID := chi.URLParam(r, "id")
	tagID := chi.URLParam(r, "tagID")

	if err := h.Svc.DetachTag(r.Context(), uid, noteID, tagID); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeNoteErr(w http.ResponseWriter, err error) {
	if errors.Is(err, note.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}
