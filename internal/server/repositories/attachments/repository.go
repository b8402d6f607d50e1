package attachments

import (
	"context"

	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// Repository tracks note attachment rows; the binary payload itself lives in
// object storage.
type Repository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	MarkUploaded(ctx context.Context, id string) error
	ListByNote(ctx context.Context, noteID string) ([]*models.Attachment, error)
}
