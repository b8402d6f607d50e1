// Package services contains the application services composing repositories,
// capability checks and transactions.
package services

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/server/access"
	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/repomanager"
)

// CreateNoteParams carries the fields of a new note. WorkspaceID nil means a
// personal note.
type CreateNoteParams struct {
	Title              string
	Content            string
	CollaborativeState []byte
	WorkspaceID        *string
	FolderID           *string
}

// UpdateNoteParams overwrites the live state of a note. Nil fields are left
// untouched; CollaborativeState is always applied (nil clears it) when
// SetCollaborativeState is true.
type UpdateNoteParams struct {
	Title                 *string
	Content               *string
	CollaborativeState    []byte
	SetCollaborativeState bool
}

// NoteService provides live-note CRUD. The history engine reads and
// overwrites notes through the same repositories.
type NoteService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	gate  access.Gate
}

// NewNoteService constructs the note service.
func NewNoteService(db *sql.DB, repos repomanager.RepositoryManager, gate access.Gate) *NoteService {
	return &NoteService{db: db, repos: repos, gate: gate}
}

// Limits are in characters, matching the varchar(255) column, so multibyte
// titles are counted by rune rather than by byte.
func validateNoteFields(title, content string) error {
	if utf8.RuneCountInString(title) > common.MaxTitleLength {
		return common.ErrorTitleTooLong
	}
	if utf8.RuneCountInString(content) > common.MaxContentLength {
		return common.ErrorContentTooLong
	}
	return nil
}

// Create inserts a new live note owned by the actor.
func (s *NoteService) Create(ctx context.Context, userID string, params *CreateNoteParams) (*models.Note, error) {
	if err := validateNoteFields(params.Title, params.Content); err != nil {
		return nil, err
	}

	note := &models.Note{
		ID:                 uuid.NewString(),
		Title:              params.Title,
		Content:            params.Content,
		CollaborativeState: params.CollaborativeState,
		WorkspaceID:        params.WorkspaceID,
		FolderID:           params.FolderID,
		OwnerID:            userID,
	}
	if err := s.repos.Notes(s.db).Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Get returns the live note after a view-capability check. Soft-deleted
// notes count as absent.
func (s *NoteService) Get(ctx context.Context, noteID, userID string) (*models.Note, error) {
	note, err := s.repos.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, common.ErrorNotFound
	}

	ok, err := s.gate.CanAccessNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}
	return note, nil
}

// Update overwrites the supplied live fields after an edit-capability check.
func (s *NoteService) Update(ctx context.Context, noteID, userID string, params *UpdateNoteParams) (*models.Note, error) {
	note, err := s.repos.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Deleted {
		return nil, common.ErrorNotFound
	}

	ok, err := s.gate.CanEditNote(ctx, userID, note)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	if params.Title != nil {
		note.Title = *params.Title
	}
	if params.Content != nil {
		note.Content = *params.Content
	}
	if params.SetCollaborativeState {
		note.CollaborativeState = params.CollaborativeState
	}
	if err := validateNoteFields(note.Title, note.Content); err != nil {
		return nil, err
	}

	if err := s.repos.Notes(s.db).UpdateContent(ctx, note.ID, note.Title, note.Content, note.CollaborativeState); err != nil {
		return nil, err
	}
	return note, nil
}

// Delete soft-deletes the note. Its version history is kept; hard deletion
// is handled elsewhere.
func (s *NoteService) Delete(ctx context.Context, noteID, userID string) error {
	note, err := s.repos.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if note.Deleted {
		return common.ErrorNotFound
	}

	ok, err := s.gate.CanEditNote(ctx, userID, note)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorForbidden
	}

	return s.repos.Notes(s.db).SoftDelete(ctx, noteID)
}
