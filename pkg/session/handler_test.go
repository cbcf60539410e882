package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/lecturefeed/pkg/session"
)

func staticAuth(userID string) session.Authenticator {
	return session.AuthenticatorFunc(func(_ context.Context, username, password string) (string, error) {
		if username == "alice" && password == "pw" {
			return userID, nil
		}
		return "", session.ErrInvalidCredentials
	})
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	issuer, store := newIssuer(t)
	h := session.LoginHandler(staticAuth("42"), issuer, nil)

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"pw"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp session.LoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "42", resp.UserID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("form", func(t *testing.T) {
		body := url.Values{"username": {"alice"}, "password": {"pw"}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejected", func(t *testing.T) {
		before := store.Len()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"no"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, before, store.Len())
	})

	t.Run("malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginHandler_AuthenticatorFailure(t *testing.T) {
	t.Parallel()

	issuer, _ := newIssuer(t)
	broken := session.AuthenticatorFunc(func(context.Context, string, string) (string, error) {
		return "", errors.New("directory unavailable")
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"a","password":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	session.LoginHandler(broken, issuer, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	t.Parallel()

	issuer, store := newIssuer(t)
	rec := httptest.NewRecorder()
	_, err := issuer.Issue(context.Background(), rec, "42")
	require.NoError(t, err)

	out := httptest.NewRecorder()
	session.LogoutHandler(issuer, nil).ServeHTTP(out, replay(rec))
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.Zero(t, store.Len())
}
