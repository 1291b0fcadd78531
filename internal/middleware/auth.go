package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/baharkarakas/mfs-backend/internal/api/httpx"
	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

// Authenticator resolves a bearer token to the live account behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Account, error)
}

// Auth requires "Authorization: Bearer <jwt>" and stores the account in
// the request context.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if len(ah) < 7 || !strings.EqualFold(ah[:7], "bearer ") {
				httpx.WriteAppError(w, r, apperr.Auth("Missing bearer token."))
				return
			}
			token := strings.TrimSpace(ah[7:])

			acct, err := a.Authenticate(r.Context(), token)
			if err != nil {
				httpx.WriteAppError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
		})
	}
}
