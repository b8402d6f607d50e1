package notes

import (
	"context"

	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// Repository provides access to live notes. Soft-deleted rows are returned
// with Deleted set; the caller decides whether they count as absent.
type Repository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)
	// GetByIDForUpdate locks the note row for the duration of the enclosing
	// transaction (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*models.Note, error)
	// UpdateContent overwrites the live title/content/collaborative state.
	UpdateContent(ctx context.Context, id, title, content string, collaborativeState []byte) error
	SoftDelete(ctx context.Context, id string) error
}
