package members

import "context"

// Workspace roles, ordered weakest to strongest.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
)

// Repository reads workspace membership. GetRole returns
// common.ErrorNotFound when the user is not a member.
type Repository interface {
	GetRole(ctx context.Context, workspaceID, userID string) (string, error)
}
