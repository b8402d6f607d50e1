package access

import (
	"context"
	"errors"
	"testing"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/repositories/members"
)

type fakeMembers struct {
	roles map[string]string // key: workspaceID + "/" + userID
	err   error
}

func (f *fakeMembers) GetRole(ctx context.Context, workspaceID, userID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	role, ok := f.roles[workspaceID+"/"+userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return role, nil
}

func strPtr(s string) *string { return &s }

func TestResolveOwnership(t *testing.T) {
	tests := []struct {
		name string
		note *models.Note
		want Ownership
	}{
		{
			name: "personal",
			note: &models.Note{ID: "n1", OwnerID: "u1"},
			want: Ownership{Kind: OwnershipPersonal, OwnerID: "u1"},
		},
		{
			name: "workspace without folder",
			note: &models.Note{ID: "n2", OwnerID: "u1", WorkspaceID: strPtr("w1")},
			want: Ownership{Kind: OwnershipWorkspace, OwnerID: "u1", WorkspaceID: "w1"},
		},
		{
			name: "workspace with folder",
			note: &models.Note{ID: "n3", OwnerID: "u1", WorkspaceID: strPtr("w1"), FolderID: strPtr("f1")},
			want: Ownership{Kind: OwnershipWorkspace, OwnerID: "u1", WorkspaceID: "w1", FolderID: "f1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveOwnership(tt.note)
			if got != tt.want {
				t.Fatalf("ResolveOwnership() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMembershipGate_Capabilities(t *testing.T) {
	personal := &models.Note{ID: "n1", OwnerID: "owner"}
	shared := &models.Note{ID: "n2", OwnerID: "owner", WorkspaceID: strPtr("w1")}

	fm := &fakeMembers{roles: map[string]string{
		"w1/viewer": members.RoleViewer,
		"w1/editor": members.RoleEditor,
	}}
	gate := NewMembershipGate(fm)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		note     *models.Note
		wantView bool
		wantEdit bool
	}{
		{"owner on personal note", "owner", personal, true, true},
		{"stranger on personal note", "other", personal, false, false},
		{"owner on workspace note", "owner", shared, true, true},
		{"viewer on workspace note", "viewer", shared, true, false},
		{"editor on workspace note", "editor", shared, true, true},
		{"non-member on workspace note", "other", shared, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := gate.CanAccessNote(ctx, tt.userID, tt.note)
			if err != nil {
				t.Fatalf("CanAccessNote error: %v", err)
			}
			if view != tt.wantView {
				t.Fatalf("CanAccessNote = %v, want %v", view, tt.wantView)
			}

			edit, err := gate.CanEditNote(ctx, tt.userID, tt.note)
			if err != nil {
				t.Fatalf("CanEditNote error: %v", err)
			}
			if edit != tt.wantEdit {
				t.Fatalf("CanEditNote = %v, want %v", edit, tt.wantEdit)
			}
		})
	}
}

func TestMembershipGate_FailsClosedOnRepoError(t *testing.T) {
	shared := &models.Note{ID: "n2", OwnerID: "owner", WorkspaceID: strPtr("w1")}
	gate := NewMembershipGate(&fakeMembers{err: errors.New("db down")})
	ctx := context.Background()

	ok, err := gate.CanAccessNote(ctx, "someone", shared)
	if err == nil {
		t.Fatal("expected error")
	}
	if ok {
		t.Fatal("expected access denied on error")
	}

	ok, err = gate.CanEditNote(ctx, "someone", shared)
	if err == nil {
		t.Fatal("expected error")
	}
	if ok {
		t.Fatal("expected edit denied on error")
	}
}
