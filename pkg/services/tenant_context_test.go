package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/database"
)

// withScope returns a context carrying a user scope without a connection,
// enough for services that only read the bound user ID.
func withScope(userID uuid.UUID) context.Context {
	return database.SetUserScope(context.Background(), &database.UserScope{UserID: userID})
}

var errNoScope = errors.New("no user scope in context")

// scopeUserID returns the user bound in ctx, as the RLS policies would see it.
func scopeUserID(ctx context.Context) (uuid.UUID, error) {
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		return uuid.Nil, errNoScope
	}
	return scope.UserID, nil
}

// errScopeAlreadyBound stands in for a pool that has no connection left for
// a caller that is still holding one.
var errScopeAlreadyBound = errors.New("user scope requested while one is held")

// fakeUserContext records the users it was asked to bind. Like a pool under
// load, it refuses to hand out a scope to a context that already holds one.
type fakeUserContext struct {
	mu       sync.Mutex
	bound    []uuid.UUID
	released int
	err      error
}

func (f *fakeUserContext) fn(ctx context.Context, userID uuid.UUID) (context.Context, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if _, held := database.GetUserScope(ctx); held {
		return nil, nil, errScopeAlreadyBound
	}

	f.mu.Lock()
	f.bound = append(f.bound, userID)
	f.mu.Unlock()

	release := func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}
	return database.SetUserScope(ctx, &database.UserScope{UserID: userID}), release, nil
}

