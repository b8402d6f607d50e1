// Package members provides the PostgreSQL-backed repository for workspace
// membership lookups.
package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/dbx"
)

// PostgresRepository implements membership lookups over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetRole(ctx context.Context, workspaceID, userID string) (string, error) {
	query := `SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`

	var role string
	err := r.db.QueryRowContext(ctx, query, workspaceID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return role, nil
}
