package web

import (
	"context"
	"net/http"
	"strings"
)

const ownerHeader = "X-User-ID"

type ownerKey struct{}

// withOwner scopes the request to the user named by X-User-ID, falling back
// to the configured default owner.
func (s *Server) withOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(ownerHeader))
		if owner == "" {
			owner = s.cfg.DefaultOwner
		}
		if owner == "" {
			s.jsonError(w, http.StatusUnauthorized, "missing "+ownerHeader)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
