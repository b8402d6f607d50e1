package versions

import (
	"context"

	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// Repository provides append-only access to note version rows. Versions are
// never updated or deleted through this interface.
type Repository interface {
	// Insert appends a version row. A duplicate (note_id, version) pair
	// yields common.ErrVersionConflict so callers can re-read the maximum
	// and retry.
	Insert(ctx context.Context, version *models.NoteVersion) error
	// MaxVersion returns the highest version number recorded for the note,
	// 0 when the note has no versions yet.
	MaxVersion(ctx context.Context, noteID string) (int64, error)
	// Latest returns the newest version row, common.ErrorNotFound when the
	// note has none.
	Latest(ctx context.Context, noteID string) (*models.NoteVersion, error)
	GetByID(ctx context.Context, id string) (*models.NoteVersion, error)
	GetByNoteAndVersion(ctx context.Context, noteID string, version int64) (*models.NoteVersion, error)
	// ListByNote returns summaries ordered newest-first.
	ListByNote(ctx context.Context, noteID string, limit, offset int) ([]*models.NoteVersionSummary, error)
	CountByNote(ctx context.Context, noteID string) (int64, error)
}
