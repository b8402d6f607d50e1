// Package notes provides the PostgreSQL-backed repository for live note
// rows.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/dbx"
	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const noteColumns = `id, title, content, collaborative_state, workspace_id, folder_id, owner_id, deleted, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (id, title, content, collaborative_state, workspace_id, folder_id, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.CollaborativeState,
		note.WorkspaceID, note.FolderID, note.OwnerID,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`
	return r.scanNote(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 FOR UPDATE`
	return r.scanNote(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanNote(row *sql.Row) (*models.Note, error) {
	note := &models.Note{}
	err := row.Scan(
		&note.ID, &note.Title, &note.Content, &note.CollaborativeState,
		&note.WorkspaceID, &note.FolderID, &note.OwnerID, &note.Deleted,
		&note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return note, nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id, title, content string, collaborativeState []byte) error {
	query := `
		UPDATE notes
		SET title = $2, content = $3, collaborative_state = $4, updated_at = now()
		WHERE id = $1 AND NOT deleted
	`
	res, err := r.db.ExecContext(ctx, query, id, title, content, collaborativeState)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE notes SET deleted = true, updated_at = now() WHERE id = $1 AND NOT deleted`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
