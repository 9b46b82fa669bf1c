package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/database"
)

// UserContextFunc acquires a user-bound database connection.
// Returns the scoped context, a cleanup function (MUST be called), and any error.
type UserContextFunc func(ctx context.Context, userID uuid.UUID) (context.Context, func(), error)

// NewUserContextFunc creates a UserContextFunc that uses the given database.
func NewUserContextFunc(db *database.DB) UserContextFunc {
	return func(ctx context.Context, userID uuid.UUID) (context.Context, func(), error) {
		scope, err := db.WithUser(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		userCtx := database.SetUserScope(ctx, scope)
		return userCtx, func() { scope.Close() }, nil
	}
}
