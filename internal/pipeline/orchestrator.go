// Package pipeline sequences extraction results through summarization, tag
// and link suggestion, and persistence. Stages degrade independently: only a
// missing or empty note is fatal.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"notewise/internal/ai"
	"notewise/internal/note"
)

type StageStatus int

const (
	StatusOK StageStatus = iota
	StatusDegraded
	StatusFatal
)

func (s StageStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFatal:
		return "fatal"
	}
	return "unknown"
}

func (s StageStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// StageResult records how one stage ended. Reason is empty for ok stages.
type StageResult struct {
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

func ok() StageResult { return StageResult{Status: StatusOK} }

func degraded(reason string) StageResult {
	return StageResult{Status: StatusDegraded, Reason: reason}
}

func fatal(reason string) StageResult {
	return StageResult{Status: StatusFatal, Reason: reason}
}

// Report is the per-note processing outcome, one result per stage.
type Report struct {
	Fetch     StageResult `json:"fetch"`
	Summarize StageResult `json:"summarize"`
	Suggest   StageResult `json:"suggest"`
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type NoteStore interface {
	Get(ctx context.Context, userID uint64, id string) (*note.Note, error)
	Update(ctx context.Context, userID uint64, id string, fields map[string]any) error
	TitleDirectory(ctx context.Context, userID uint64) ([]note.NoteTitle, error)
}

type TagStore interface {
	ListTags(ctx context.Context, userID uint64) ([]note.Tag, error)
	CreateTag(ctx context.Context, userID uint64, in note.CreateTagInput) (*note.Tag, error)
	AttachTag(ctx context.Context, userID uint64, noteID, tagID string) error
}

// UsageRecorder accounts for gateway calls. Optional; nil disables it.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, userID uint64, op string, tokens int, model string)
}

type Orchestrator struct {
	Gateway Generator
	Notes   NoteStore
	Tags    TagStore
	Usage   UsageRecorder
	Model   string
	Log     *zap.SugaredLogger
}

// Process runs the full pipeline for one note: fetch, summarize, suggest.
// The returned error is non-nil only when the fetch stage is fatal; any
// other failure shows up as a degraded stage in the report while the
// pipeline keeps going.
func (o *Orchestrator) Process(ctx context.Context, userID uint64, noteID string) (*note.Note, Report, error) {
	var rep Report

	n, err := o.Notes.Get(ctx, userID, noteID)
	if err != nil {
		rep.Fetch = fatal(fmt.Sprintf("fetch note: %v", err))
		return nil, rep, fmt.Errorf("fetch note %s: %w", noteID, err)
	}
	if strings.TrimSpace(n.Content) == "" {
		rep.Fetch = fatal("note content is empty, nothing to summarize")
		return nil, rep, fmt.Errorf("note %s has no content", noteID)
	}
	rep.Fetch = ok()

	summary, sumRes := o.summarize(ctx, userID, n)
	rep.Summarize = sumRes

	attached, sugRes := o.suggest(ctx, userID, n, summary)
	rep.Suggest = sugRes

	if attached > 0 {
		if refreshed, err := o.Notes.Get(ctx, userID, noteID); err == nil {
			n = refreshed
		} else {
			o.Log.Warnw("refetch after tag attach failed", "note", noteID, "err", err)
		}
	}
	return n, rep, nil
}

// summarize runs stage two and returns the summary to feed into the tagging
// prompt: the freshly parsed one on success, the note's pre-existing one
// (possibly empty) when the stage degrades.
func (o *Orchestrator) summarize(ctx context.Context, userID uint64, n *note.Note) (string, StageResult) {
	raw, err := o.Gateway.Generate(ctx, ai.SummarizationPrompt(n.Content))
	if err != nil {
		o.Log.Warnw("summarization call failed", "note", n.ID, "err", err)
		return n.AISummary, degraded("generate summary: " + err.Error())
	}
	o.recordUsage(ctx, userID, "summarize_note", raw)

	res := ai.ParseSummary(raw)
	fields := map[string]any{
		"ai_summary":    res.Summary,
		"ai_key_points": pq.StringArray(res.KeyPoints),
		"ai_processed":  true,
	}
	if err := o.Notes.Update(ctx, userID, n.ID, fields); err != nil {
		o.Log.Warnw("persist summary failed", "note", n.ID, "err", err)
		return res.Summary, degraded("persist summary: " + err.Error())
	}

	n.AISummary = res.Summary
	n.AIKeyPoints = res.KeyPoints
	n.AIProcessed = true
	return res.Summary, ok()
}

// suggest runs stage three: tag/link/keyword suggestions, reconciliation and
// persistence. Returns how many tags were attached so the caller knows
// whether to refetch.
func (o *Orchestrator) suggest(ctx context.Context, userID uint64, n *note.Note, summary string) (int, StageResult) {
	directory, err := o.Notes.TitleDirectory(ctx, userID)
	if err != nil {
		o.Log.Warnw("title directory fetch failed", "note", n.ID, "err", err)
		directory = nil
	}
	others := make([]note.NoteTitle, 0, len(directory))
	for _, d := range directory {
		if d.ID != n.ID {
			others = append(others, d)
		}
	}

	existing := make([]string, 0, len(n.Tags))
	for _, ref := range note.RefsFromTags(n.Tags) {
		existing = append(existing, ref.NormalizedName())
	}

	raw, err := o.Gateway.Generate(ctx, ai.TaggingPrompt(n.Content, summary, existing, others))
	if err != nil {
		o.Log.Warnw("suggestion call failed", "note", n.ID, "err", err)
		return 0, degraded("generate suggestions: " + err.Error())
	}
	o.recordUsage(ctx, userID, "suggest_tags", raw)

	sugg := ai.ParseSuggestions(raw)
	if sugg == nil {
		o.Log.Warnw("suggestion reply not parseable", "note", n.ID)
		return 0, degraded("suggestion reply did not contain the expected JSON object")
	}

	rec := Reconciler{Tags: o.Tags, Log: o.Log}
	outcome := rec.Reconcile(ctx, userID, n.ID, note.RefsFromTags(n.Tags), sugg.SuggestedTags)

	tagsJSON, _ := json.Marshal(sugg.SuggestedTags)
	linksJSON, _ := json.Marshal(sugg.SuggestedLinks)
	fields := map[string]any{
		"ai_suggested_tags":   datatypes.JSON(tagsJSON),
		"ai_suggested_links":  datatypes.JSON(linksJSON),
		"ai_summary_keywords": pq.StringArray(sugg.SummaryKeywords),
	}
	if err := o.Notes.Update(ctx, userID, n.ID, fields); err != nil {
		o.Log.Warnw("persist suggestions failed", "note", n.ID, "err", err)
		return len(outcome.AttachedTagIDs), degraded("persist suggestions: " + err.Error())
	}

	if len(outcome.Warnings) > 0 {
		return len(outcome.AttachedTagIDs), degraded(strings.Join(outcome.Warnings, "; "))
	}
	return len(outcome.AttachedTagIDs), ok()
}

func (o *Orchestrator) recordUsage(ctx context.Context, userID uint64, op, reply string) {
	if o.Usage != nil {
		o.Usage.RecordUsage(ctx, userID, op, ai.EstimateTokens(reply), o.Model)
	}
}
