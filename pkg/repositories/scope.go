package repositories

import (
	"context"
	"fmt"

	"github.com/onboardlens/onboardlens/pkg/database"
)

// userScope returns the request's user-bound connection.
func userScope(ctx context.Context) (*database.UserScope, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no user scope in context")
	}
	return scope, nil
}
