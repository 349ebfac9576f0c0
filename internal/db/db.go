package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"notewise/internal/auth"
	"notewise/internal/jobs"
	"notewise/internal/note"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&note.Note{},
		&note.Tag{},
		&note.NoteTag{},
		&note.AIUsage{},
		&jobs.Job{},
		&auth.User{},
	); err != nil {
		return err
	}

	// Tag names are unique per user, case-insensitively.
	if err := gdb.Exec(`create unique index if not exists uq_tags_user_lower_name on tags(user_id, lower(name));`).Error; err != nil {
		return err
	}

	// Join table helper index
	if err := gdb.Exec(`create index if not exists idx_note_tags_user_tag on note_tags(user_id, tag_id);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_notes_user_updated on notes(user_id, updated_at desc);`,
		`create index if not exists idx_notes_user_archived on notes(user_id, is_archived);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
