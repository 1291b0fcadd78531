package middleware

import (
	"context"

	"github.com/baharkarakas/mfs-backend/internal/models"
)

type accountKey struct{}

func WithAccount(ctx context.Context, a models.Account) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

// AccountFrom returns the authenticated account, if any.
func AccountFrom(ctx context.Context) (models.Account, bool) {
	a, ok := ctx.Value(accountKey{}).(models.Account)
	return a, ok
}
