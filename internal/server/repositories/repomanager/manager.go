package repomanager

import (
	"context"
	"database/sql"

	"github.com/mpetrenko/notekeeper/internal/dbx"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/attachments"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/members"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/notes"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/versions"
)

// RepositoryManager vends repositories bound to a DBTX so services can use
// the same constructors inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Notes(db dbx.DBTX) notes.Repository
	Versions(db dbx.DBTX) versions.Repository
	Members(db dbx.DBTX) members.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
