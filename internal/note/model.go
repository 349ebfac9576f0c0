package note

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// SuggestedTag is an AI-proposed tag name, optionally with a coarse category.
type SuggestedTag struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// SuggestedLink is an AI-proposed relation to another note. Advisory only:
// it never mutates note relationships by itself.
type SuggestedLink struct {
	NoteID    string `json:"note_id"`
	NoteTitle string `json:"note_title"`
	Reason    string `json:"reason"`
}

// Flashcard is derived from a summary; regeneration replaces the whole set.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// NoteTitle is a directory entry used as a link candidate in tagging prompts.
type NoteTitle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Note struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"user_id"`

	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null;default:''" json:"content"`
	Status  string `gorm:"not null;default:'active'" json:"status"`

	IsFavorite bool `gorm:"not null;default:false" json:"is_favorite"`
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`
	IsImported bool `gorm:"not null;default:false" json:"is_imported"`

	SourceFileType string `gorm:"type:text" json:"source_file_type,omitempty"`

	// Column names are pinned: the pipeline updates these via column-keyed
	// maps, and gorm's namer does not split the AI prefix predictably.
	AIProcessed       bool           `gorm:"column:ai_processed;not null;default:false" json:"ai_processed"`
	AISummary         string         `gorm:"column:ai_summary;type:text;not null;default:''" json:"ai_summary"`
	AIKeyPoints       pq.StringArray `gorm:"column:ai_key_points;type:text[];not null;default:'{}'" json:"ai_key_points"`
	AISummaryKeywords pq.StringArray `gorm:"column:ai_summary_keywords;type:text[];not null;default:'{}'" json:"ai_summary_keywords"`

	AISuggestedTags  datatypes.JSON `gorm:"column:ai_suggested_tags;type:jsonb" json:"ai_suggested_tags"`
	AISuggestedLinks datatypes.JSON `gorm:"column:ai_suggested_links;type:jsonb" json:"ai_suggested_links"`
	AIFlashcards     datatypes.JSON `gorm:"column:ai_flashcards;type:jsonb" json:"ai_flashcards"`

	LastViewedAt *time.Time `json:"last_viewed_at"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"index;not null" json:"updated_at"`

	// Resolved through note_tags; not a column.
	Tags []Tag `gorm:"-" json:"tags"`
}

// Tag names are unique per user, case-insensitively (see db.AutoMigrateAndIndexes).
type Tag struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uint64    `gorm:"index;not null" json:"user_id"`
	Name            string    `gorm:"not null" json:"name"`
	Color           string    `gorm:"not null;default:''" json:"color"`
	Description     string    `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	IsAutoGenerated bool      `gorm:"not null;default:false" json:"is_auto_generated"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

// NoteTag is the join table between notes and tags.
type NoteTag struct {
	NoteID string `gorm:"type:uuid;primaryKey"`
	TagID  string `gorm:"type:uuid;primaryKey"`
	UserID uint64 `gorm:"index;not null"`
}

// AIUsage is one accounting row per gateway call.
type AIUsage struct {
	ID            uint64    `gorm:"primaryKey"`
	UserID        uint64    `gorm:"index;not null"`
	OperationType string    `gorm:"not null"`
	TokensUsed    int       `gorm:"not null;default:0"`
	ModelUsed     string    `gorm:"not null;default:''"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (n *Note) SuggestedTags() []SuggestedTag {
	var out []SuggestedTag
	if len(n.AISuggestedTags) > 0 {
		_ = json.Unmarshal(n.AISuggestedTags, &out)
	}
	return out
}

func (n *Note) SuggestedLinks() []SuggestedLink {
	var out []SuggestedLink
	if len(n.AISuggestedLinks) > 0 {
		_ = json.Unmarshal(n.AISuggestedLinks, &out)
	}
	return out
}

func (n *Note) Flashcards() []Flashcard {
	var out []Flashcard
	if len(n.AIFlashcards) > 0 {
		_ = json.Unmarshal(n.AIFlashcards, &out)
	}
	return out
}

// TagNames returns the names of the note's resolved tags.
func (n *Note) TagNames() []string {
	out := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		out = append(out, t.Name)
	}
	return out
}
