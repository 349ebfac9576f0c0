package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"notewise/internal/ai"
	"notewise/internal/auth"
	"notewise/internal/config"
	"notewise/internal/extract"
	"notewise/internal/http/handler"
	mw "notewise/internal/http/middleware"
	"notewise/internal/jobs"
	"notewise/internal/note"
	"notewise/internal/pipeline"
)

type Deps struct {
	DB        *gorm.DB
	JWT       *auth.JWT
	Gateway   *ai.Gateway
	Extractor *extract.Extractor
	Jobs      *jobs.Repo
	Pipeline  *pipeline.Orchestrator
	Log       *zap.SugaredLogger
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	svc := &note.Service{DB: d.DB, Log: d.Log}
	noteH := &handler.NoteHandler{Svc: svc}
	noteRead := &handler.NoteReadHandler{Svc: svc}
	tagH := &handler.TagHandler{Svc: svc}
	procH := &handler.ProcessHandler{Pipeline: d.Pipeline}
	cardH := &handler.FlashcardHandler{Svc: svc, Gateway: d.Gateway, FontPath: cfg.FlashcardFontPath}
	importH := &handler.ImportHandler{Svc: svc, Extractor: d.Extractor, Jobs: d.Jobs, Log: d.Log}
	ocrH := &handler.OCRHandler{Svc: svc, Gateway: d.Gateway}

	r.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", noteH.Create)
		r.Get("/", noteRead.List)
		r.Get("/titles", noteRead.Titles)

		r.Get("/{id}", noteRead.Get)
		r.Patch("/{id}", noteH.Update)
		r.Delete("/{id}", noteH.Delete)

		r.Post("/{id}/favorite", noteH.Favorite)
		r.Post("/{id}/archive", noteH.Archive)

		r.Post("/{id}/process", procH.Process)

		r.Post("/{id}/flashcards", cardH.Generate)
		r.Get("/{id}/flashcards/anki", cardH.ExportAnki)
		r.Get("/{id}/flashcards/pdf", cardH.ExportPDF)

		r.Post("/{id}/tags/{tagID}", noteH.AttachTag)
		r.Delete("/{id}/tags/{tagID}", noteH.DetachTag)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Get("/", tagH.List)
		r.Post("/", tagH.Create)
		r.Patch("/{id}", tagH.Update)
		r.Delete("/{id}", tagH.Delete)
	})

	r.With(auth.RequireAuth(d.JWT)).Post("/import", importH.Import)
	r.With(auth.RequireAuth(d.JWT)).Post("/ocr", ocrH.OCR)

	return r
}
