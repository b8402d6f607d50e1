// Package versions provides the PostgreSQL-backed repository for immutable
// note version rows.
package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/dbx"
	"github.com/mpetrenko/notekeeper/internal/server/models"
)

// pgUniqueViolation is the SQLSTATE class for unique constraint failures.
const pgUniqueViolation = "23505"

// PostgresRepository implements version storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const versionColumns = `id, note_id, version, title, content, collaborative_state, created_at, created_by`

func (r *PostgresRepository) Insert(ctx context.Context, version *models.NoteVersion) error {
	query := `
		INSERT INTO note_versions (id, note_id, version, title, content, collaborative_state, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		version.ID, version.NoteID, version.Version, version.Title,
		version.Content, version.CollaborativeState, version.CreatedBy,
	).Scan(&version.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MaxVersion(ctx context.Context, noteID string) (int64, error) {
	query := `SELECT COALESCE(MAX(version), 0) FROM note_versions WHERE note_id = $1`

	var max int64
	if err := r.db.QueryRowContext(ctx, query, noteID).Scan(&max); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return max, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, noteID string) (*models.NoteVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM note_versions
		WHERE note_id = $1
		ORDER BY version DESC
		LIMIT 1`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, noteID))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.NoteVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM note_versions WHERE id = $1`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByNoteAndVersion(ctx context.Context, noteID string, version int64) (*models.NoteVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM note_versions WHERE note_id = $1 AND version = $2`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, noteID, version))
}

func (r *PostgresRepository) scanVersion(row *sql.Row) (*models.NoteVersion, error) {
	v := &models.NoteVersion{}
	var content sql.NullString
	err := row.Scan(
		&v.ID, &v.NoteID, &v.Version, &v.Title, &content,
		&v.CollaborativeState, &v.CreatedAt, &v.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	v.Content = content.String
	return v, nil
}

func (r *PostgresRepository) ListByNote(ctx context.Context, noteID string, limit, offset int) ([]*models.NoteVersionSummary, error) {
	query := `SELECT id, note_id, version, title, created_at, created_by FROM note_versions
		WHERE note_id = $1
		ORDER BY version DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, noteID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.NoteVersionSummary
	for rows.Next() {
		var item models.NoteVersionSummary
		if err := rows.Scan(
			&item.ID, &item.NoteID, &item.Version, &item.Title,
			&item.CreatedAt, &item.CreatedBy,
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

func (r *PostgresRepository) CountByNote(ctx context.Context, noteID string) (int64, error) {
	query := `SELECT COUNT(*) FROM note_versions WHERE note_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, noteID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
