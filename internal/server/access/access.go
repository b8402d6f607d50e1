// Package access answers view/edit capability questions for notes. The
// history and note services consume only the Gate interface; the membership
// gate below is the default wiring, not part of the engine itself.
package access

import (
	"context"
	"errors"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/members"
)

// OwnershipKind discriminates the ownership variants of a note.
type OwnershipKind int

const (
	OwnershipPersonal OwnershipKind = iota
	OwnershipWorkspace
)

// Ownership is the tagged ownership variant of a note: either personal
// (owner only) or attached to a workspace folder.
type Ownership struct {
	Kind        OwnershipKind
	OwnerID     string
	WorkspaceID string
	FolderID    string
}

// ResolveOwnership derives the ownership variant from a note. A note without
// a workspace association is personal.
func ResolveOwnership(note *models.Note) Ownership {
	if note.WorkspaceID == nil {
		return Ownership{Kind: OwnershipPersonal, OwnerID: note.OwnerID}
	}
	o := Ownership{
		Kind:        OwnershipWorkspace,
		OwnerID:     note.OwnerID,
		WorkspaceID: *note.WorkspaceID,
	}
	if note.FolderID != nil {
		o.FolderID = *note.FolderID
	}
	return o
}

// Gate makes capability decisions over notes. Implementations must fail
// closed: an error during resolution counts as a denial for the caller.
type Gate interface {
	CanAccessNote(ctx context.Context, userID string, note *models.Note) (bool, error)
	CanEditNote(ctx context.Context, userID string, note *models.Note) (bool, error)
}

// MembershipGate resolves workspace capabilities through a membership
// repository. Personal notes are visible and editable only by their owner;
// workspace notes require membership (any role to view, editor to edit).
type MembershipGate struct {
	members members.Repository
}

// NewMembershipGate constructs a gate backed by the given membership source.
func NewMembershipGate(m members.Repository) *MembershipGate {
	return &MembershipGate{members: m}
}

func (g *MembershipGate) CanAccessNote(ctx context.Context, userID string, note *models.Note) (bool, error) {
	own := ResolveOwnership(note)
	if own.Kind == OwnershipPersonal {
		return own.OwnerID == userID, nil
	}
	if own.OwnerID == userID {
		return true, nil
	}
	_, err := g.members.GetRole(ctx, own.WorkspaceID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *MembershipGate) CanEditNote(ctx context.Context, userID string, note *models.Note) (bool, error) {
	own := ResolveOwnership(note)
	if own.Kind == OwnershipPersonal {
		return own.OwnerID == userID, nil
	}
	if own.OwnerID == userID {
		return true, nil
	}
	role, err := g.members.GetRole(ctx, own.WorkspaceID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return role == members.RoleEditor, nil
}
