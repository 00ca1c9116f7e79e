// internal/handlers/identity.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/modernart/internal/auth"
)

const authCookieName = "auth_token"

var errNoToken = errors.New("missing auth token")

// tokenFromRequest reads the auth_token cookie, falling back to a bearer
// Authorization header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// authenticate returns the id of the calling user.
func authenticate(r *http.Request) (uuid.UUID, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return uuid.Nil, errNoToken
	}
	return auth.AuthenticateJWT(token)
}

// EnsureGuest returns the caller's id. A request without a valid token gets
// a fresh guest identity, delivered as the auth_token cookie.
func EnsureGuest(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if id, err := authenticate(r); err == nil {
		return id, nil
	}
	id := uuid.New()
	token, err := auth.CreateJWT(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create guest JWT: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, nil
}
