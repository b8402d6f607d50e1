// Package http exposes the note and version-history services over a JSON
// REST API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/logging"
	"github.com/mpetrenko/notekeeper/internal/server/services"
)

// Handler holds the services behind the REST endpoints.
type Handler struct {
	notes       *services.NoteService
	history     *services.HistoryService
	attachments *services.AttachmentService
	validate    *validator.Validate
	logger      logging.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(notes *services.NoteService, history *services.HistoryService, attachments *services.AttachmentService, logger logging.Logger) *Handler {
	return &Handler{
		notes:       notes,
		history:     history,
		attachments: attachments,
		validate:    validator.New(),
		logger:      logger.With("module", "http"),
	}
}

// writeServiceError maps service errors onto HTTP statuses. Unknown errors
// are logged and rendered as a generic retryable failure.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorTitleTooLong), errors.Is(err, common.ErrorContentTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
	}
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	note, err := h.notes.Create(r.Context(), actorID(r), &services.CreateNoteParams{
		Title:              req.Title,
		Content:            req.Content,
		CollaborativeState: req.CollaborativeState,
		WorkspaceID:        req.WorkspaceID,
		FolderID:           req.FolderID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(r.Context(), mux.Vars(r)["noteId"], actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	params := &services.UpdateNoteParams{
		Title:   req.Title,
		Content: req.Content,
	}
	if req.ClearCollaborativeState {
		params.SetCollaborativeState = true
	} else if req.CollaborativeState != nil {
		params.SetCollaborativeState = true
		params.CollaborativeState = req.CollaborativeState
	}

	note, err := h.notes.Update(r.Context(), mux.Vars(r)["noteId"], actorID(r), params)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), mux.Vars(r)["noteId"], actorID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSnapshot serves both snapshot paths. The default path never fails:
// its outcome is always a result payload. With ?force=true the comparison is
// skipped and errors surface to the caller.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["noteId"]

	if r.URL.Query().Get("force") == "true" {
		result, err := h.history.CreateForcedSnapshot(r.Context(), noteID, actorID(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
		return
	}

	result := h.history.CreateSnapshotIfChanged(r.Context(), noteID, actorID(r))
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.history.RestoreVersion(r.Context(), mux.Vars(r)["noteId"], req.VersionID, actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRestoreResponse(result))
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = services.DefaultPageSize
	}
	if pageSize > services.MaxPageSize {
		pageSize = services.MaxPageSize
	}

	items, total, err := h.history.ListVersions(r.Context(), mux.Vars(r)["noteId"], actorID(r), page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionListResponse(items, total, page, pageSize))
}

func (h *Handler) GetVersionByID(w http.ResponseWriter, r *http.Request) {
	version, err := h.history.GetVersionByID(r.Context(), mux.Vars(r)["versionId"], actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *Handler) GetVersionByNumber(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	number, err := strconv.ParseInt(vars["number"], 10, 64)
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid version number")
		return
	}

	version, err := h.history.GetVersionByNumber(r.Context(), vars["noteId"], number, actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *Handler) RequestAttachmentUpload(w http.ResponseWriter, r *http.Request) {
	var req requestUploadRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.attachments.RequestUpload(r.Context(), mux.Vars(r)["noteId"], actorID(r), req.FileName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	items, err := h.attachments.ListByNote(r.Context(), mux.Vars(r)["noteId"], actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttachmentResponses(items))
}

func (h *Handler) MarkAttachmentUploaded(w http.ResponseWriter, r *http.Request) {
	if err := h.attachments.MarkUploaded(r.Context(), mux.Vars(r)["attachmentId"], actorID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAttachmentURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.attachments.GetDownloadURL(r.Context(), mux.Vars(r)["attachmentId"], actorID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
