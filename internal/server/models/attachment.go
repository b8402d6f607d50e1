package models

import "time"

// Attachment upload states.
const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// Attachment is a binary file linked to a note. The payload lives in object
// storage under StorageKey; the row tracks upload progress.
type Attachment struct {
	ID           string
	NoteID       string
	FileName     string
	StorageKey   string
	UploadStatus string
	CreatedBy    string
	CreatedAt    time.Time
}
