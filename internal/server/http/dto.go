package http

import (
	"time"

	"github.com/mpetrenko/notekeeper/internal/server/models"
	"github.com/mpetrenko/notekeeper/internal/server/services"
)

type createNoteRequest struct {
	Title              string  `json:"title" validate:"required,max=255"`
	Content            string  `json:"content"`
	CollaborativeState []byte  `json:"collaborative_state"`
	WorkspaceID        *string `json:"workspace_id" validate:"omitempty,uuid"`
	FolderID           *string `json:"folder_id" validate:"omitempty,uuid"`
}

type updateNoteRequest struct {
	Title                   *string `json:"title" validate:"omitempty,max=255"`
	Content                 *string `json:"content"`
	CollaborativeState      []byte  `json:"collaborative_state"`
	ClearCollaborativeState bool    `json:"clear_collaborative_state"`
}

type restoreRequest struct {
	VersionID string `json:"version_id" validate:"required,uuid"`
}

type requestUploadRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

type noteResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	CollaborativeState []byte    `json:"collaborative_state,omitempty"`
	WorkspaceID        *string   `json:"workspace_id,omitempty"`
	FolderID           *string   `json:"folder_id,omitempty"`
	OwnerID            string    `json:"owner_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toNoteResponse(n *models.Note) *noteResponse {
	return &noteResponse{
		ID:                 n.ID,
		Title:              n.Title,
		Content:            n.Content,
		CollaborativeState: n.CollaborativeState,
		WorkspaceID:        n.WorkspaceID,
		FolderID:           n.FolderID,
		OwnerID:            n.OwnerID,
		CreatedAt:          n.CreatedAt,
		UpdatedAt:          n.UpdatedAt,
	}
}

type versionResponse struct {
	ID                 string    `json:"id"`
	NoteID             string    `json:"note_id"`
	Version            int64     `json:"version"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	CollaborativeState []byte    `json:"collaborative_state,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	CreatedBy          string    `json:"created_by"`
}

func toVersionResponse(v *models.NoteVersion) *versionResponse {
	return &versionResponse{
		ID:                 v.ID,
		NoteID:             v.NoteID,
		Version:            v.Version,
		Title:              v.Title,
		Content:            v.Content,
		CollaborativeState: v.CollaborativeState,
		CreatedAt:          v.CreatedAt,
		CreatedBy:          v.CreatedBy,
	}
}

type versionSummaryResponse struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
}

type versionListResponse struct {
	Versions []*versionSummaryResponse `json:"versions"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
}

func toVersionListResponse(items []*models.NoteVersionSummary, total int64, page, pageSize int) *versionListResponse {
	out := &versionListResponse{
		Versions: make([]*versionSummaryResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, v := range items {
		out.Versions = append(out.Versions, &versionSummaryResponse{
			ID:        v.ID,
			NoteID:    v.NoteID,
			Version:   v.Version,
			Title:     v.Title,
			CreatedAt: v.CreatedAt,
			CreatedBy: v.CreatedBy,
		})
	}
	return out
}

type restoreResponse struct {
	Note                *noteResponse `json:"note"`
	RestoredFromVersion int64         `json:"restored_from_version"`
	UndoVersionID       string        `json:"undo_version_id"`
	RestoredVersionID   string        `json:"restored_version_id"`
	Degraded            bool          `json:"degraded"`
}

func toRestoreResponse(r *services.RestoreResult) *restoreResponse {
	return &restoreResponse{
		Note:                toNoteResponse(r.Note),
		RestoredFromVersion: r.RestoredFromVersion,
		UndoVersionID:       r.UndoVersionID,
		RestoredVersionID:   r.RestoredVersionID,
		Degraded:            r.Degraded,
	}
}

type attachmentResponse struct {
	ID           string    `json:"id"`
	NoteID       string    `json:"note_id"`
	FileName     string    `json:"file_name"`
	UploadStatus string    `json:"upload_status"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAttachmentResponses(items []*models.Attachment) []*attachmentResponse {
	out := make([]*attachmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, &attachmentResponse{
			ID:           a.ID,
			NoteID:       a.NoteID,
			FileName:     a.FileName,
			UploadStatus: a.UploadStatus,
			CreatedBy:    a.CreatedBy,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out
}
