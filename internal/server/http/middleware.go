package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mpetrenko/notekeeper/internal/common"
	"github.com/mpetrenko/notekeeper/internal/logging"
	"github.com/mpetrenko/notekeeper/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// bearerActor extracts and verifies the bearer token, returning the actor
// id. All failures wrap common.ErrorUnauthorized.
func bearerActor(r *http.Request, secretKey []byte) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: missing authorization header", common.ErrorUnauthorized)
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("%w: invalid authorization header format", common.ErrorUnauthorized)
	}

	userID, err := auth.GetUserIDFromToken(parts[1], secretKey)
	if err != nil || userID == "" {
		return "", fmt.Errorf("%w: invalid or expired token", common.ErrorUnauthorized)
	}
	return userID, nil
}

// authMiddleware resolves the Bearer token to an actor id and stores it in
// the request context. Requests without a valid token never reach a handler.
func authMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := bearerActor(r, secretKey)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorID returns the authenticated user id placed by authMiddleware.
func actorID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request through the shared logger.
func loggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}
