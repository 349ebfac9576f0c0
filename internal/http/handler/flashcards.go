package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"

	"notewise/internal/ai"
	"notewise/internal/auth"
	"notewise/internal/export"
	"notewise/internal/note"
)

// minSummaryLen guards flashcard generation: shorter summaries produce junk
// cards, so they yield an empty set instead of a gateway call.
const minSummaryLen = 50

type FlashcardHandler struct {
	Svc      *note.Service
	Gateway  *ai.Gateway
	FontPath string
}

type flashcardsResp struct {
	Flashcards []note.Flashcard `json:"flashcards"`
}

// Generate derives a fresh flashcard set from the note's AI summary and
// replaces any prior set.
func (h *FlashcardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		writeNoteErr(w, err)
		return
	}

	summary := strings.TrimSpace(n.AISummary)
	if len(summary) < minSummaryLen {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(flashcardsResp{Flashcards: []note.Flashcard{}})
		return
	}

	raw, err := h.Gateway.Generate(r.Context(), ai.FlashcardPrompt(summary))
	if err != nil {
		http.Error(w, "flashcard generation failed", http.StatusBadGateway)
		return
	}
	h.Svc.RecordUsage(r.Context(), uid, "generate_flashcards", ai.EstimateTokens(raw), h.Gateway.Model)

	cards := ai.ParseFlashcards(raw)
	if cards == nil {
		http.Error(w, "flashcard reply did not contain the expected JSON object", http.StatusBadGateway)
		return
	}

	cardsJSON, _ := json.Marshal(cards)
	if err := h.Svc.Update(r.Context(), uid, id, map[string]any{
		"ai_flashcards": datatypes.JSON(cardsJSON),
	}); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(flashcardsResp{Flashcards: cards})
}

// ExportAnki streams the structured interchange document: one record per
// flashcard, grouped under a deck named after the note.
func (h *FlashcardHandler) ExportAnki(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		writeNoteErr(w, err)
		return
	}
	cards := n.Flashcards()
	if len(cards) == 0 {
		http.Error(w, "no flashcards to export", http.StatusBadRequest)
		return
	}

	deck := export.AnkiDeck(n.Title, cards, n.TagNames())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.SafeFileName(n.Title)+"_anki_import.json"))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(deck)
}

// ExportPDF streams the printable card sheet.
func (h *FlashcardHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	n, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		writeNoteErr(w, err)
		return
	}
	cards := n.Flashcards()
	if len(cards) == 0 {
		http.Error(w, "no flashcards to export", http.StatusBadRequest)
		return
	}

	pdf, err := export.CardSheetPDF(cards, h.FontPath)
	if err != nil {
		http.Error(w, "pdf rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.SafeFileName(n.Title)+"_flashcards.pdf"))
	_, _ = w.Write(pdf)
}
