package audit

import (
	"fmt"
	"strings"

	"retail-backend/internal/models"

	"gorm.io/gorm"
)

type NoteOptions struct {
	Severity   models.Severity
	Message    string
	ActorID    *uint
	EntityType string
	EntityID   uint
}

// WriteNote appends an admin note using db, which is normally the caller's
// transaction so the note rolls back with the rest of the work.
func WriteNote(db *gorm.DB, opts NoteOptions) error {
	msg := strings.TrimSpace(opts.Message)
	if msg == "" {
		return fmt.Errorf("admin note message is empty")
	}
	severity := opts.Severity
	if severity == "" {
		severity = models.SeverityLow
	}

	note := models.AdminNote{
		Severity:   severity,
		Message:    msg,
		ActorID:    opts.ActorID,
		EntityType: opts.EntityType,
		EntityID:   opts.EntityID,
	}
	if err := db.Create(&note).Error; err != nil {
		return fmt.Errorf("admin note could not be saved: %w", err)
	}
	return nil
}

// ListNotes returns notes newest first. limit <= 0 means no limit.
func ListNotes(db *gorm.DB, limit int) ([]models.AdminNote, error) {
	var notes []models.AdminNote
	q := db.Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("admin notes could not be listed: %w", err)
	}
	return notes, nil
}
