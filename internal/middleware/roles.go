package middleware

import (
	"net/http"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

// RequireRole allows only accounts holding one of roles. Must run after Auth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acct, ok := AccountFrom(r.Context())
			if !ok {
				httpx.WriteAppError(w, r, apperr.Auth("Missing bearer token."))
				return
			}
			if _, ok := allowed[acct.Role]; !ok {
				httpx.WriteAppError(w, r, apperr.Forbidden("Access denied."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
