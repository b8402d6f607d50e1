package notes

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var noteCols = []string{"id", "title", "content", "collaborative_state", "workspace_id", "folder_id", "owner_id", "deleted", "created_at", "updated_at"}

func TestCreate_PopulatesTimestamps(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO notes .* RETURNING created_at, updated_at`).
		WithArgs("n1", "T", "C", []byte("s"), nil, nil, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	note := &models.Note{ID: "n1", Title: "T", Content: "C", CollaborativeState: []byte("s"), OwnerID: "u1"}
	if err := repo.Create(context.Background(), note); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.CreatedAt.IsZero() || note.UpdatedAt.IsZero() {
		t.Fatal("timestamps not populated")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM notes WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGetByID_ReturnsDeletedFlag(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM notes WHERE id = \$1`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow("n1", "T", "C", nil, nil, nil, "u1", true, time.Now(), time.Now()))

	note, err := repo.GetByID(context.Background(), "n1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !note.Deleted {
		t.Fatal("deleted flag must pass through; callers decide visibility")
	}
}

func TestGetByIDForUpdate_UsesRowLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM notes WHERE id = \$1 FOR UPDATE`).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow("n1", "T", "C", nil, nil, nil, "u1", false, time.Now(), time.Now()))

	note, err := repo.GetByIDForUpdate(context.Background(), "n1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.ID != "n1" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateContent_ZeroRowsIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE notes\s+SET title = \$2, content = \$3, collaborative_state = \$4, updated_at = now\(\)\s+WHERE id = \$1 AND NOT deleted`).
		WithArgs("gone", "T", "C", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContent(context.Background(), "gone", "T", "C", nil)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSoftDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE notes SET deleted = true, updated_at = now\(\) WHERE id = \$1 AND NOT deleted`).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SoftDelete(context.Background(), "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
