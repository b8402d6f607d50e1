package models

import "time"

// NoteVersion is an immutable snapshot of a note's state. Rows are only ever
// inserted; version numbers are unique per note and strictly increasing,
// gaps permitted.
type NoteVersion struct {
	ID                 string
	NoteID             string
	Version            int64
	Title              string
	Content            string
	CollaborativeState []byte
	CreatedAt          time.Time
	CreatedBy          string
}

// NoteVersionSummary is the lightweight list projection: no content and no
// binary state.
type NoteVersionSummary struct {
	ID        string
	NoteID    string
	Version   int64
	Title     string
	CreatedAt time.Time
	CreatedBy string
}
