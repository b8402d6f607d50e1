// Package attachments provides the PostgreSQL-backed repository for note
// attachment rows.
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/dbx"
	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// PostgresRepository implements attachment storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	query := `
		INSERT INTO note_attachments (id, note_id, file_name, storage_key, upload_status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		attachment.ID, attachment.NoteID, attachment.FileName,
		attachment.StorageKey, attachment.UploadStatus, attachment.CreatedBy,
	).Scan(&attachment.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query := `SELECT id, note_id, file_name, storage_key, upload_status, created_by, created_at
		FROM note_attachments WHERE id = $1`

	a := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.NoteID, &a.FileName, &a.StorageKey,
		&a.UploadStatus, &a.CreatedBy, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// MarkUploaded flips the attachment to uploaded. Exactly one row must be
// affected.
func (r *PostgresRepository) MarkUploaded(ctx context.Context, id string) error {
	query := `UPDATE note_attachments SET upload_status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.UploadStatusUploaded)
	if err != nil {
		return fmt.Errorf("failed to mark uploaded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByNote(ctx context.Context, noteID string) ([]*models.Attachment, error) {
	query := `SELECT id, note_id, file_name, storage_key, upload_status, created_by, created_at
		FROM note_attachments WHERE note_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		var item models.Attachment
		if err := rows.Scan(
			&item.ID, &item.NoteID, &item.FileName, &item.StorageKey,
			&item.UploadStatus, &item.CreatedBy, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
