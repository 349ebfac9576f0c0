package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"notewise/internal/note"
	"notewise/internal/pipeline"
)

// Worker drains the queue one job at a time. AI processing is deliberately
// sequential: a slow LLM call delays later jobs but cannot starve them,
// because each job's failure is contained to that job.
type Worker struct {
	ID       string
	Repo     *Repo
	Pipeline *pipeline.Orchestrator
	Log      *zap.SugaredLogger
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Warnw("worker claim error", "err", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case "NOTE_AI_PROCESS":
		w.handleNoteProcess(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleNoteProcess(ctx context.Context, job *Job) {
	type payload struct {
		NoteID string `json:"note_id"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.NoteID == "" {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	_, rep, err := w.Pipeline.Process(ctx, job.UserID, p.NoteID)
	if err != nil {
		// A vanished note is not worth retrying; anything else might be
		// transient.
		if errors.Is(err, note.ErrNotFound) {
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, err.Error())
		return
	}

	w.Log.Infow("note processed",
		"note", p.NoteID,
		"summarize", rep.Summarize.Status.String(),
		"suggest", rep.Suggest.Status.String(),
	)
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
