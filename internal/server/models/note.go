// Package models defines the persistent entities of the note history
// service: live notes, their immutable version records and file attachments.
package models

import "time"

// Note is the live, mutable document. CollaborativeState holds the opaque
// binary document produced by the real-time editing engine; it is stored and
// returned as-is, never interpreted. WorkspaceID and FolderID are nil for a
// personal note.
type Note struct {
	ID                 string
	Title              string
	Content            string
	CollaborativeState []byte
	WorkspaceID        *string
	FolderID           *string
	OwnerID            string
	Deleted            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
