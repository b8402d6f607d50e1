package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mpetrenko/notekeeper/internal/logging"
)

// Server wraps the HTTP server and its routing.
type Server struct {
	address   string
	handler   *Handler
	logger    logging.Logger
	jwtSecret []byte
}

// NewServer constructs the REST server.
func NewServer(address string, handler *Handler, logger logging.Logger, secretKey string) *Server {
	return &Server{
		address:   address,
		handler:   handler,
		logger:    logger.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles all routes and middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware(s.jwtSecret))

	h := s.handler
	api.HandleFunc("/notes", h.CreateNote).Methods(http.MethodPost)
	api.HandleFunc("/notes/{noteId}", h.GetNote).Methods(http.MethodGet)
	api.HandleFunc("/notes/{noteId}", h.UpdateNote).Methods(http.MethodPut)
	api.HandleFunc("/notes/{noteId}", h.DeleteNote).Methods(http.MethodDelete)

	api.HandleFunc("/notes/{noteId}/snapshots", h.CreateSnapshot).Methods(http.MethodPost)
	api.HandleFunc("/notes/{noteId}/restore", h.RestoreVersion).Methods(http.MethodPost)
	api.HandleFunc("/notes/{noteId}/versions", h.ListVersions).Methods(http.MethodGet)
	api.HandleFunc("/notes/{noteId}/versions/{number}", h.GetVersionByNumber).Methods(http.MethodGet)
	api.HandleFunc("/versions/{versionId}", h.GetVersionByID).Methods(http.MethodGet)

	api.HandleFunc("/notes/{noteId}/attachments", h.RequestAttachmentUpload).Methods(http.MethodPost)
	api.HandleFunc("/notes/{noteId}/attachments", h.ListAttachments).Methods(http.MethodGet)
	api.HandleFunc("/attachments/{attachmentId}/uploaded", h.MarkAttachmentUploaded).Methods(http.MethodPost)
	api.HandleFunc("/attachments/{attachmentId}/url", h.GetAttachmentURL).Methods(http.MethodGet)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
