package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notewise/internal/ai"
	"notewise/internal/auth"
	"notewise/internal/config"
	"notewise/internal/db"
	"notewise/internal/extract"
	httpx "notewise/internal/http"
	"notewise/internal/jobs"
	"notewise/internal/note"
	"notewise/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := newLogger(cfg.LogMode)
	defer func() { _ = logger.Sync() }()
	slog := logger.Sugar()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Fatalw("db connect failed", "err", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		slog.Fatalw("db migrate failed", "err", err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	gateway := ai.NewGateway(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVisionModel, slog)

	svc := &note.Service{DB: gdb, Log: slog}
	orch := &pipeline.Orchestrator{
		Gateway: gateway,
		Notes:   svc,
		Tags:    svc,
		Usage:   svc,
		Model:   cfg.GeminiModel,
		Log:     slog,
	}
	extractor := &extract.Extractor{
		OCR: func(ctx context.Context, mimeType, imageB64 string) (string, error) {
			return gateway.GenerateVision(ctx, ai.OCRPrompt, mimeType, imageB64)
		},
	}

	jobsRepo := &jobs.Repo{DB: gdb}
	worker := &jobs.Worker{ID: "worker-1", Repo: jobsRepo, Pipeline: orch, Log: slog}

	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:        gdb,
		JWT:       jwtSvc,
		Gateway:   gateway,
		Extractor: extractor,
		Jobs:      jobsRepo,
		Pipeline:  orch,
		Log:       slog,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Infow("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Fatalw("server failed", "err", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(mode string) *zap.Logger {
	if mode == "prod" {
		l, err := zap.NewProduction()
		if err != nil {
			log.Fatal(err)
		}
		return l
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	return l
}
