package handler

import (
	"encoding/json"
	"net/http"
	"regexp"

	"notewise/internal/ai"
	"notewise/internal/auth"
	"notewise/internal/note"
)

type OCRHandler struct {
	Svc     *note.Service
	Gateway *ai.Gateway
}

type ocrReq struct {
	Image string `json:"image"`
}

type ocrResp struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// OCR extracts text from a base64 image via the vision generation path.
// Transport failures become HTTP error statuses; generation failures come
// back as a payload-level error field, matching the two failure channels the
// caller distinguishes.
func (h *OCRHandler) OCR(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req ocrReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		http.Error(w, "image data is required", http.StatusBadRequest)
		return
	}
	data := dataURLPrefix.ReplaceAllString(req.Image, "")

	text, err := h.Gateway.GenerateVision(r.Context(), ai.OCRPrompt, "image/jpeg", data)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ocrResp{Error: "failed to extract text from image"})
		return
	}

	h.Svc.RecordUsage(r.Context(), uid, "ocr_image", ai.EstimateTokens(text), h.Gateway.VisionModel)
	_ = json.NewEncoder(w).Encode(ocrResp{Text: text})
}
