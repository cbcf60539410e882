package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/lecturefeed/pkg/binder"
	"github.com/dmitrymomot/lecturefeed/pkg/logger"
)

// LoginRequest is the body accepted by LoginHandler, as JSON or form data.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LoginHandler verifies credentials with auth and issues a session cookie.
// Responds 200 with LoginResponse, 400 for malformed bodies and 401 for
// rejected credentials.
func LoginHandler(auth Authenticator, issuer *Issuer, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := binder.Bind(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if req.Username == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username and password are required"})
			return
		}

		userID, err := auth.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				log.InfoContext(r.Context(), "login rejected", slog.String("username", req.Username))
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
				return
			}
			log.ErrorContext(r.Context(), "authentication failed", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}

		s, err := issuer.Issue(r.Context(), w, userID)
		if err != nil {
			log.ErrorContext(r.Context(), "failed to issue session", logger.UserID(userID), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			UserID:    s.UserID,
			ExpiresAt: s.ExpiresAt.Format(http.TimeFormat),
		})
	})
}

// LogoutHandler revokes the request's session and responds 204.
func LogoutHandler(issuer *Issuer, log *slog.Logger) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := issuer.Revoke(r.Context(), w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to revoke session", logger.Error(err))
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
