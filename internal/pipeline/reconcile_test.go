package pipeline

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notewise/internal/note"
)

func newReconciler(tags *fakeTags) Reconciler {
	return Reconciler{Tags: tags, Log: zap.NewNop().Sugar()}
}

func TestReconcileReusesExistingTagCaseInsensitively(t *testing.T) {
	tags := &fakeTags{global: []note.Tag{
		{ID: "t1", Name: "Machine Learning"},
	}}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "machine learning"}})

	assert.Empty(t, tags.created, "existing tag must be reused, not duplicated")
	assert.Equal(t, []string{"t1"}, out.AttachedTagIDs)
	assert.Zero(t, out.CreatedTags)
	assert.Empty(t, out.Warnings)
}

func TestReconcileCreatesMissingTag(t *testing.T) {
	tags := &fakeTags{}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "  Distributed Systems  ", Category: "Tech"}})

	require.Len(t, tags.created, 1)
	in := tags.created[0]
	assert.Equal(t, "Distributed Systems", in.Name, "display name keeps casing, loses padding")
	assert.Equal(t, "Tech", in.Description)
	assert.True(t, in.IsAutoGenerated)
	assert.Regexp(t, regexp.MustCompile(`^#[0-9A-F]{6}$`), in.Color)

	assert.Equal(t, 1, out.CreatedTags)
	assert.Len(t, out.AttachedTagIDs, 1)
}

func TestReconcileDefaultsDescriptionWhenNoCategory(t *testing.T) {
	tags := &fakeTags{}
	r := newReconciler(tags)

	r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "Loose"}})

	require.Len(t, tags.created, 1)
	assert.Equal(t, "AI Suggested", tags.created[0].Description)
}

func TestReconcileSkipsTagsTheNoteAlreadyHas(t *testing.T) {
	tags := &fakeTags{global: []note.Tag{
		{ID: "t1", Name: "Go"},
	}}
	r := newReconciler(tags)
	current := []note.TagRef{note.TagFull(note.Tag{ID: "t1", Name: "Go"})}

	out := r.Reconcile(context.Background(), 1, "n1", current,
		[]note.SuggestedTag{{Name: "go"}})

	assert.Empty(t, out.AttachedTagIDs)
	assert.Empty(t, tags.attached)
	assert.Empty(t, out.Warnings)
}

func TestReconcileMatchesLegacyNameOnlyRefs(t *testing.T) {
	tags := &fakeTags{global: []note.Tag{
		{ID: "t1", Name: "Go"},
	}}
	r := newReconciler(tags)
	current := []note.TagRef{note.TagByName("GO")}

	out := r.Reconcile(context.Background(), 1, "n1", current,
		[]note.SuggestedTag{{Name: "go"}})

	assert.Empty(t, out.AttachedTagIDs)
}

func TestReconcileDuplicateSuggestionsAttachOnce(t *testing.T) {
	tags := &fakeTags{}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "Rust"}, {Name: "rust"}, {Name: " RUST "}})

	assert.Equal(t, 1, out.CreatedTags)
	assert.Len(t, out.AttachedTagIDs, 1)
	assert.Len(t, tags.attached, 1)
}

func TestReconcileSkipsBlankNames(t *testing.T) {
	tags := &fakeTags{}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "   "}, {Name: ""}})

	assert.Empty(t, tags.created)
	assert.Empty(t, out.AttachedTagIDs)
	assert.Empty(t, out.Warnings)
}

func TestReconcileContinuesPastCreateFailure(t *testing.T) {
	tags := &fakeTags{
		global:    []note.Tag{{ID: "t1", Name: "Existing"}},
		createErr: errors.New("db down"),
	}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "Fresh"}, {Name: "Existing"}})

	// The creation failed but the run still attached the existing tag.
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Fresh")
	assert.Equal(t, []string{"t1"}, out.AttachedTagIDs)
}

func TestReconcileContinuesPastAttachFailure(t *testing.T) {
	tags := &fakeTags{
		global:    []note.Tag{{ID: "t1", Name: "A"}, {ID: "t2", Name: "B"}},
		attachErr: errors.New("conflict"),
	}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "A"}, {Name: "B"}})

	assert.Len(t, out.Warnings, 2)
	assert.Empty(t, out.AttachedTagIDs)
}

func TestReconcileListFailureStopsRun(t *testing.T) {
	tags := &fakeTags{listErr: errors.New("timeout")}
	r := newReconciler(tags)

	out := r.Reconcile(context.Background(), 1, "n1", nil,
		[]note.SuggestedTag{{Name: "Anything"}})

	require.Len(t, out.Warnings, 1)
	assert.Empty(t, tags.created)
	assert.Empty(t, out.AttachedTagIDs)
}
