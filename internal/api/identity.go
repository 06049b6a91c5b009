package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// UserHeader carries the caller's user id when HeaderIdentity is in use.
const UserHeader = "X-User-ID"

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity resolves the user a request acts for.
type Identity interface {
	UserID(r *http.Request) (string, error)
}

// HeaderIdentity trusts the UserHeader set by an upstream auth proxy.
type HeaderIdentity struct{}

func (HeaderIdentity) UserID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

// StaticIdentity acts for one fixed user. The CLI server uses it when
// running single-user.
type StaticIdentity string

func (s StaticIdentity) UserID(*http.Request) (string, error) {
	if s == "" {
		return "", ErrUnauthenticated
	}
	return string(s), nil
}

type userKey struct{}

func withUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.identity.UserID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}
