package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"notewise/internal/note"
)

// Reconciler maps AI-suggested tag names onto the user's canonical tag set,
// creating missing tags and attaching them to the note. Attachment is
// additive only; removal is always an explicit user action elsewhere.
type Reconciler struct {
	Tags TagStore
	Log  *zap.SugaredLogger
}

// ReconcileOutcome reports what a reconciliation run did. Warnings are
// per-tag failures that did not stop the run.
type ReconcileOutcome struct {
	AttachedTagIDs []string
	CreatedTags    int
	Warnings       []string
}

// Reconcile processes each suggestion in order: normalize the name, reuse a
// case-insensitive match from the user's global tags or create a new one,
// then attach it unless the note already carries a tag with the same id or
// normalized name. A failure on one suggestion is logged and the rest still
// run.
func (r *Reconciler) Reconcile(ctx context.Context, userID uint64, noteID string, current []note.TagRef, suggested []note.SuggestedTag) ReconcileOutcome {
	var out ReconcileOutcome

	globals, err := r.Tags.ListTags(ctx, userID)
	if err != nil {
		out.Warnings = append(out.Warnings, "list tags: "+err.Error())
		r.Log.Warnw("tag reconciliation could not load global tags", "err", err)
		return out
	}
	byNorm := make(map[string]note.Tag, len(globals))
	for _, t := range globals {
		byNorm[note.NormalizeTagName(t.Name)] = t
	}

	for _, s := range suggested {
		norm := note.NormalizeTagName(s.Name)
		if norm == "" {
			continue
		}

		tag, found := byNorm[norm]
		if !found {
			desc := s.Category
			if desc == "" {
				desc = "AI Suggested"
			}
			created, err := r.Tags.CreateTag(ctx, userID, note.CreateTagInput{
				Name:            strings.TrimSpace(s.Name),
				Color:           randomColor(),
				Description:     desc,
				IsAutoGenerated: true,
			})
			if err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("create tag %q: %v", s.Name, err))
				r.Log.Warnw("could not create suggested tag", "tag", s.Name, "err", err)
				continue
			}
			tag = *created
			byNorm[norm] = tag
			out.CreatedTags++
		}

		if noteHasTag(current, tag.ID, norm) {
			continue
		}

		if err := r.Tags.AttachTag(ctx, userID, noteID, tag.ID); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("attach tag %q: %v", tag.Name, err))
			r.Log.Warnw("could not attach suggested tag", "tag", tag.Name, "note", noteID, "err", err)
			continue
		}
		current = append(current, note.TagFull(tag))
		out.AttachedTagIDs = append(out.AttachedTagIDs, tag.ID)
	}
	return out
}

func noteHasTag(current []note.TagRef, tagID, norm string) bool {
	for _, ref := range current {
		if ref.Matches(tagID, norm) {
			return true
		}
	}
	return false
}

const colorLetters = "0123456789ABCDEF"

func randomColor() string {
	b := make([]byte, 7)
	b[0] = '#'
	for i := 1; i < 7; i++ {
		b[i] = colorLetters[rand.Intn(16)]
	}
	return string(b)
}
