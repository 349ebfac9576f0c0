package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"notewise/internal/extract"
	"notewise/internal/jobs"
	"notewise/internal/note"
)

func newImportHandler(t *testing.T) (*ImportHandler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&note.Note{}, &note.Tag{}, &note.NoteTag{}, &jobs.Job{}))
	t.Cleanup(func() {
		sqlDB, _ := gdb.DB()
		_ = sqlDB.Close()
	})

	log := zap.NewNop().Sugar()
	return &ImportHandler{
		Svc:       &note.Service{DB: gdb, Log: log},
		Extractor: &extract.Extractor{},
		Jobs:      &jobs.Repo{DB: gdb},
		Log:       log,
	}, gdb
}

func multipartBody(t *testing.T, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type importResults struct {
	Results []importFileResult `json:"results"`
}

func doImport(t *testing.T, h *ImportHandler, body *bytes.Buffer, contentType string) importResults {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out importResults
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestImportBatchIsolatesFailures(t *testing.T) {
	h, gdb := newImportHandler(t)

	// The middle file is a corrupt docx; its failure must not stop the batch.
	body, ct := multipartBody(t, map[string][]byte{
		"first.txt":   []byte("first body"),
		"broken.docx": []byte("not a zip archive"),
		"third.md":    []byte("third body"),
	}, []string{"first.txt", "broken.docx", "third.md"})

	out := doImport(t, h, body, ct)

	require.Len(t, out.Results, 3)

	assert.Equal(t, "first.txt", out.Results[0].File)
	assert.Equal(t, "queued", out.Results[0].Status)
	assert.NotEmpty(t, out.Results[0].NoteID)

	assert.Equal(t, "broken.docx", out.Results[1].File)
	assert.Equal(t, "failed", out.Results[1].Status)
	assert.Empty(t, out.Results[1].NoteID)
	assert.NotEmpty(t, out.Results[1].Error)

	assert.Equal(t, "third.md", out.Results[2].File)
	assert.Equal(t, "queued", out.Results[2].Status)
	assert.NotEmpty(t, out.Results[2].NoteID)

	// Two notes landed, two jobs were queued, none for the corrupt file.
	var noteCount, jobCount int64
	require.NoError(t, gdb.Model(&note.Note{}).Count(&noteCount).Error)
	require.NoError(t, gdb.Model(&jobs.Job{}).Where("status = ?", "PENDING").Count(&jobCount).Error)
	assert.EqualValues(t, 2, noteCount)
	assert.EqualValues(t, 2, jobCount)
}

func TestImportNoteFieldsFromFile(t *testing.T) {
	h, gdb := newImportHandler(t)

	body, ct := multipartBody(t, map[string][]byte{
		"Meeting Notes.txt": []byte("agenda items"),
	}, []string{"Meeting Notes.txt"})

	out := doImport(t, h, body, ct)
	require.Len(t, out.Results, 1)
	require.Equal(t, "queued", out.Results[0].Status)

	var n note.Note
	require.NoError(t, gdb.First(&n, "id = ?", out.Results[0].NoteID).Error)
	assert.Equal(t, "Meeting Notes", n.Title)
	assert.Equal(t, "agenda items", n.Content)
	assert.True(t, n.IsImported)
	assert.Equal(t, "txt", n.SourceFileType)
}

func TestImportUnknownTypeStillLands(t *testing.T) {
	h, gdb := newImportHandler(t)

	body, ct := multipartBody(t, map[string][]byte{
		"deck.pptx": {0x01, 0x02},
	}, []string{"deck.pptx"})

	out := doImport(t, h, body, ct)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "queued", out.Results[0].Status)

	var n note.Note
	require.NoError(t, gdb.First(&n, "id = ?", out.Results[0].NoteID).Error)
	assert.Equal(t, "Imported file: deck.pptx", n.Content)
}

func TestImportRejectsEmptyBatch(t *testing.T) {
	h, _ := newImportHandler(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Import(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
