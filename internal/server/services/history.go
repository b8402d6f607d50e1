package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/dbx"
	"github.com/mpetrenko/notekeeper/internal/server/access"
	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/repomanager"
)

// Snapshot outcome reasons.
const (
	ReasonCreated      = "created"
	ReasonNoChanges    = "no_changes"
	ReasonNoteNotFound = "note_not_found"
	ReasonForbidden    = "forbidden"
	ReasonError        = "error"
)

// Pagination bounds for the version list.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// allocatorMaxAttempts bounds the read-max/insert/retry loop. Snapshot
// events are rare relative to edits, so collisions beyond this bound point
// at a real storage problem rather than contention.
const allocatorMaxAttempts = 3

// SnapshotResult is the discriminated outcome of a snapshot attempt.
type SnapshotResult struct {
	Created   bool   `json:"created"`
	Reason    string `json:"reason"`
	Version   int64  `json:"version,omitempty"`
	VersionID string `json:"version_id,omitempty"`
}

// RestoreResult reports a committed restore. Degraded is set when the target
// version carried no collaborative state, so the live state was cleared and
// readers must fall back to the content text.
type RestoreResult struct {
	Note                *models.Note
	RestoredFromVersion int64
	UndoVersionID       string
	RestoredVersionID   string
	Degraded            bool
}

// HistoryService records immutable note snapshots, allocates version numbers
// under concurrent writers and restores notes to prior versions without ever
// rewriting history.
type HistoryService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	gate  access.Gate
}

// NewHistoryService constructs the history service.
func NewHistoryService(db *sql.DB, repos repomanager.RepositoryManager, gate access.Gate) *HistoryService {
	return &HistoryService{db: db, repos: repos, gate: gate}
}

// loadLiveNote fetches a note and treats soft-deleted rows as absent.
func (s *HistoryService) loadLiveNote(ctx context.Context, db dbx.DBTX, noteID string) (*models.Note, error) {
	note, err := s.repos.Notes(db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, common.ErrorNotFound
	}
	return note, nil
}

// allocateAndInsert assigns the next version number for the note and inserts
// the row. On a uniqueness conflict (a concurrent writer claimed the number
// first) it re-reads the maximum and retries, bounded at
// allocatorMaxAttempts; exhaustion surfaces the underlying error.
func (s *HistoryService) allocateAndInsert(ctx context.Context, db dbx.DBTX, version *models.NoteVersion) error {
	repo := s.repos.Versions(db)

	backoff := retry.WithMaxRetries(allocatorMaxAttempts-1, retry.NewConstant(time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		max, err := repo.MaxVersion(ctx, version.NoteID)
		if err != nil {
			return err
		}
		version.Version = max + 1
		if err := repo.Insert(ctx, version); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// snapshot implements both snapshot paths. With force unset the new snapshot
// is skipped when the latest version's title and content already match the
// live note; the collaborative binary state is deliberately excluded from
// that comparison because it mutates on every keystroke.
//
// The dedup comparison and the allocation run inside one transaction holding
// the note row lock. Every writer that appends versions takes the same lock,
// so per-note allocation is serialized and a restore in flight cannot have
// its number claimed from under it.
func (s *HistoryService) snapshot(ctx context.Context, noteID, userID string, force bool) (*SnapshotResult, error) {
	note, err := s.loadLiveNote(ctx, s.db, noteID)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanEditNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	var result *SnapshotResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.repos.Notes(tx).GetByIDForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if current.Deleted {
			return common.ErrorNotFound
		}

		if !force {
			latest, err := s.repos.Versions(tx).Latest(ctx, noteID)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			if latest != nil && latest.Title == current.Title && latest.Content == current.Content {
				result = &SnapshotResult{Created: false, Reason: ReasonNoChanges}
				return nil
			}
		}

		version := &models.NoteVersion{
			ID:                 uuid.NewString(),
			NoteID:             current.ID,
			Title:              current.Title,
			Content:            current.Content,
			CollaborativeState: current.CollaborativeState,
			CreatedBy:          userID,
		}
		if err := s.allocateAndInsert(ctx, tx, version); err != nil {
			return err
		}

		result = &SnapshotResult{
			Created:   true,
			Reason:    ReasonCreated,
			Version:   version.Version,
			VersionID: version.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateSnapshotIfChanged takes a snapshot unless nothing observable changed
// since the last one. The outcome is always a result, never an error:
// background snapshotting must not interrupt an editing session, so
// failures are downgraded to a reason.
func (s *HistoryService) CreateSnapshotIfChanged(ctx context.Context, noteID, userID string) *SnapshotResult {
	result, err := s.snapshot(ctx, noteID, userID, false)
	if err == nil {
		return result
	}
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return &SnapshotResult{Created: false, Reason: ReasonNoteNotFound}
	case errors.Is(err, common.ErrorForbidden):
		return &SnapshotResult{Created: false, Reason: ReasonForbidden}
	default:
		return &SnapshotResult{Created: false, Reason: ReasonError}
	}
}

// CreateForcedSnapshot always snapshots, skipping the change comparison, but
// still fails closed on not-found/forbidden/storage errors.
func (s *HistoryService) CreateForcedSnapshot(ctx context.Context, noteID, userID string) (*SnapshotResult, error) {
	return s.snapshot(ctx, noteID, userID, true)
}

// RestoreVersion reverts the note's live state to the target version inside
// one transaction: an undo snapshot of the pre-restore state, the live
// overwrite, and a version recording the restored state either all commit or
// none do. Existence and capability checks run before any mutation.
func (s *HistoryService) RestoreVersion(ctx context.Context, noteID, versionID, userID string) (*RestoreResult, error) {
	note, err := s.loadLiveNote(ctx, s.db, noteID)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanEditNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	target, err := s.repos.Versions(s.db).GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	// A version id belonging to another note is indistinguishable from a
	// missing one for the caller.
	if target.NoteID != noteID {
		return nil, common.ErrorNotFound
	}

	result := &RestoreResult{
		RestoredFromVersion: target.Version,
		Degraded:            target.CollaborativeState == nil,
	}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	err = dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		noteRepo := s.repos.Notes(tx)
		versionRepo := s.repos.Versions(tx)

		// Lock the note row so no other writer interleaves between the
		// allocation reads and the two appends.
		current, err := noteRepo.GetByIDForUpdate(ctx, noteID)
		if err != nil {
			return err
		}
		if current.Deleted {
			return common.ErrorNotFound
		}

		undo := &models.NoteVersion{
			ID:                 uuid.NewString(),
			NoteID:             current.ID,
			Title:              current.Title,
			Content:            current.Content,
			CollaborativeState: current.CollaborativeState,
			CreatedBy:          userID,
		}
		if err := s.allocateAndInsert(ctx, tx, undo); err != nil {
			return fmt.Errorf("undo snapshot: %w", err)
		}

		if err := noteRepo.UpdateContent(ctx, current.ID, target.Title, target.Content, target.CollaborativeState); err != nil {
			return fmt.Errorf("apply restore: %w", err)
		}

		restored := &models.NoteVersion{
			ID:                 uuid.NewString(),
			NoteID:             current.ID,
			Version:            undo.Version + 1,
			Title:              target.Title,
			Content:            target.Content,
			CollaborativeState: target.CollaborativeState,
			CreatedBy:          userID,
		}
		if err := versionRepo.Insert(ctx, restored); err != nil {
			return fmt.Errorf("restored snapshot: %w", err)
		}

		current.Title = target.Title
		current.Content = target.Content
		current.CollaborativeState = target.CollaborativeState

		result.Note = current
		result.UndoVersionID = undo.ID
		result.RestoredVersionID = restored.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListVersions returns the note's history newest-first as lightweight
// summaries plus the total count. Page is 1-based; pageSize is clamped to
// [1, maxPageSize].
func (s *HistoryService) ListVersions(ctx context.Context, noteID, userID string, page, pageSize int) ([]*models.NoteVersionSummary, int64, error) {
	note, err := s.loadLiveNote(ctx, s.db, noteID)
	if err != nil {
		return nil, 0, err
	}

	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, common.ErrorForbidden
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	versionRepo := s.repos.Versions(s.db)

	total, err := versionRepo.CountByNote(ctx, noteID)
	if err != nil {
		return nil, 0, err
	}

	items, err := versionRepo.ListByNote(ctx, noteID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetVersionByID returns the full projection of one version, including
// content and binary state.
func (s *HistoryService) GetVersionByID(ctx context.Context, versionID, userID string) (*models.NoteVersion, error) {
	version, err := s.repos.Versions(s.db).GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	note, err := s.loadLiveNote(ctx, s.db, version.NoteID)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	return version, nil
}

// GetVersionByNumber returns the full projection of the version with the
// given number within the note's history.
func (s *HistoryService) GetVersionByNumber(ctx context.Context, noteID string, number int64, userID string) (*models.NoteVersion, error) {
	note, err := s.loadLiveNote(ctx, s.db, noteID)
	if err != nil {
		return nil, err
	}

	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	return s.repos.Versions(s.db).GetByNoteAndVersion(ctx, noteID, number)
}
