package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"notewise/internal/auth"
	"notewise/internal/extract"
	"notewise/internal/jobs"
	"notewise/internal/note"
)

// maxImportBody caps a whole import batch at 32 MiB.
const maxImportBody = 32 << 20

type ImportHandler struct {
	Svc       *note.Service
	Extractor *extract.Extractor
	Jobs      *jobs.Repo
	Log       *zap.SugaredLogger
}

type importFileResult struct {
	File   string `json:"file"`
	NoteID string `json:"note_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Import accepts a multipart batch under the "files" field. Each file is
// extracted, stored as a note, and queued for AI processing. Failures are
// isolated per file so the rest of the batch still lands.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxImportBody); err != nil {
		http.Error(w, "bad multipart body", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	results := make([]importFileResult, 0, len(files))
	for _, fh := range files {
		results = append(results, h.importOne(r, uid, fh))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": results,
	})
}

func (h *ImportHandler) importOne(r *http.Request, uid uint64, fh *multipart.FileHeader) importFileResult {
	name := fh.Filename
	res := importFileResult{File: name}

	f, err := fh.Open()
	if err != nil {
		res.Status = "failed"
		res.Error = "could not read upload"
		return res
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		res.Status = "failed"
		res.Error = "could not read upload"
		return res
	}

	text, err := h.Extractor.Extract(r.Context(), name, data)
	if err != nil {
		h.Log.Warnw("import extraction failed", "file", name, "err", err)
		res.Status = "failed"
		res.Error = err.Error()
		return res
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.TrimSpace(title) == "" {
		title = name
	}

	n, err := h.Svc.Create(r.Context(), uid, note.CreateNoteInput{
		Title:          title,
		Content:        text,
		IsImported:     true,
		SourceFileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
	})
	if err != nil {
		res.Status = "failed"
		res.Error = "could not store note"
		return res
	}
	res.NoteID = n.ID

	if err := h.Jobs.EnqueueNoteProcess(uid, n.ID); err != nil {
		h.Log.Warnw("import enqueue failed", "note_id", n.ID, "err", err)
		res.Status = "imported"
		res.Error = "queued processing failed; note saved without AI results"
		return res
	}

	res.Status = "queued"
	return res
}
