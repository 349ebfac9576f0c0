package note

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	DB  *gorm.DB
	Log *zap.SugaredLogger
}

type CreateNoteInput struct {
	Title          string
	Content        string
	Status         string
	IsFavorite     bool
	IsArchived     bool
	IsImported     bool
	SourceFileType string
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateNoteInput) (*Note, error) {
	status := in.Status
	if status == "" {
		status = "active"
	}
	n := Note{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          in.Title,
		Content:        in.Content,
		Status:         status,
		IsFavorite:     in.IsFavorite,
		IsArchived:     in.IsArchived,
		IsImported:     in.IsImported,
		SourceFileType: in.SourceFileType,
		AIKeyPoints:    []string{},
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, err
	}
	n.Tags = []Tag{}
	return &n, nil
}

// Get returns the note with its resolved tags and touches last_viewed_at.
// The touch is best-effort: a failure there never fails the read.
func (s *Service) Get(ctx context.Context, userID uint64, id string) (*Note, error) {
	var n Note
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tags, err := s.tagsForNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	n.Tags = tags

	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("last_viewed_at", now).Error; err != nil {
		s.Log.Warnw("touch last_viewed_at failed", "note", id, "err", err)
	} else {
		n.LastViewedAt = &now
	}
	return &n, nil
}

type ListFilter struct {
	Archived *bool
	Favorite *bool
	TagID    string
	Query    string
}

func (s *Service) List(ctx context.Context, userID uint64, f ListFilter) ([]Note, error) {
	q := s.DB.WithContext(ctx).Model(&Note{}).Where("user_id = ?", userID)

	if f.Archived != nil {
		q = q.Where("is_archived = ?", *f.Archived)
	}
	if f.Favorite != nil {
		q = q.Where("is_favorite = ?", *f.Favorite)
	}
	if f.TagID != "" {
		q = q.Where("id IN (?)", s.DB.Model(&NoteTag{}).Select("note_id").
			Where("user_id = ? AND tag_id = ?", userID, f.TagID))
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("lower(title) LIKE lower(?) OR lower(content) LIKE lower(?)", like, like)
	}

	var rows []Note
	if err := q.Order("updated_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	if err := s.populateTags(ctx, userID, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// TitleDirectory lists every note's id and title for link-candidate prompts.
func (s *Service) TitleDirectory(ctx context.Context, userID uint64) ([]NoteTitle, error) {
	var out []NoteTitle
	err := s.DB.WithContext(ctx).Model(&Note{}).
		Select("id", "title").
		Where("user_id = ?", userID).
		Order("title").
		Scan(&out).Error
	return out, err
}

// Update applies the given column values. Last write wins; there is no
// version token or conflict detection.
func (s *Service) Update(ctx context.Context, userID uint64, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	res := s.DB.WithContext(ctx).Model(&Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ToggleFavorite(ctx context.Context, userID uint64, id string, value bool) error {
	return s.Update(ctx, userID, id, map[string]any{"is_favorite": value})
}

func (s *Service) ToggleArchive(ctx context.Context, userID uint64, id string, value bool) error {
	return s.Update(ctx, userID, id, map[string]any{"is_archived": value})
}

// Delete removes a note in two phases: the note_tags join rows first, and the
// note row only if that succeeded. A failed first phase preserves the note
// (no orphaned note with dangling tag references). A failed second phase
// after a successful first is logged and surfaced, a rare accepted
// inconsistency: the underlying contract offers no cross-statement rollback
// here.
func (s *Service) Delete(ctx context.Context, userID uint64, id string) error {
	var n Note
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.DB.WithContext(ctx).
		Where("note_id = ? AND user_id = ?", id, userID).
		Delete(&NoteTag{}).Error; err != nil {
		return fmt.Errorf("delete tag associations: %w", err)
	}

	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Note{}).Error; err != nil {
		s.Log.Errorw("note row delete failed after join rows were removed", "note", id, "err", err)
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func (s *Service) ListTags(ctx context.Context, userID uint64) ([]Tag, error) {
	var tags []Tag
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&tags).Error
	return tags, err
}

type CreateTagInput struct {
	Name            string
	Color           string
	Description     string
	IsAutoGenerated bool
}

func (s *Service) CreateTag(ctx context.Context, userID uint64, in CreateTagInput) (*Tag, error) {
	t := Tag{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            in.Name,
		Color:           in.Color,
		Description:     in.Description,
		IsAutoGenerated: in.IsAutoGenerated,
	}
	if err := s.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) UpdateTag(ctx context.Context, userID uint64, id string, fields map[string]any) error {
	res := s.DB.WithContext(ctx).Model(&Tag{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTag removes the tag and its note associations, join rows first.
func (s *Service) DeleteTag(ctx context.Context, userID uint64, id string) error {
	if err := s.DB.WithContext(ctx).
		Where("tag_id = ? AND user_id = ?", id, userID).
		Delete(&NoteTag{}).Error; err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Tag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) AttachTag(ctx context.Context, userID uint64, noteID, tagID string) error {
	return s.DB.WithContext(ctx).Create(&NoteTag{NoteID: noteID, TagID: tagID, UserID: userID}).Error
}

func (s *Service) DetachTag(ctx context.Context, userID uint64, noteID, tagID string) error {
	return s.DB.WithContext(ctx).
		Where("note_id = ? AND tag_id = ? AND user_id = ?", noteID, tagID, userID).
		Delete(&NoteTag{}).Error
}

// RecordUsage writes one accounting row per AI call. Best-effort.
func (s *Service) RecordUsage(ctx context.Context, userID uint64, op string, tokens int, model string) {
	u := AIUsage{UserID: userID, OperationType: op, TokensUsed: tokens, ModelUsed: model}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		s.Log.Warnw("ai usage record failed", "op", op, "err", err)
	}
}

func (s *Service) tagsForNote(ctx context.Context, userID uint64, noteID string) ([]Tag, error) {
	var tags []Tag
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND id IN (?)", userID,
			s.DB.Model(&NoteTag{}).Select("tag_id").Where("note_id = ?", noteID)).
		Order("name").
		Find(&tags).Error
	return tags, err
}

func (s *Service) populateTags(ctx context.Context, userID uint64, rows []Note) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, 0, len(rows))
	for i := range rows {
		rows[i].Tags = []Tag{}
		ids = append(ids, rows[i].ID)
	}

	var joins []NoteTag
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND note_id IN ?", userID, ids).
		Find(&joins).Error; err != nil {
		return err
	}
	if len(joins) == 0 {
		return nil
	}

	all, err := s.ListTags(ctx, userID)
	if err != nil {
		return err
	}
	byID := make(map[string]Tag, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	byNote := make(map[string][]Tag)
	for _, j := range joins {
		if t, ok := byID[j.TagID]; ok {
			byNote[j.NoteID] = append(byNote[j.NoteID], t)
		}
	}
	for i := range rows {
		if ts, ok := byNote[rows[i].ID]; ok {
			rows[i].Tags = ts
		}
	}
	return nil
}
