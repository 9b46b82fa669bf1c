//go:build integration

package migrations_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onboardlens/onboardlens/pkg/database"
)

func mustScope(t *testing.T, ctx context.Context) *pgxpool.Conn {
	t.Helper()
	scope, ok := database.GetUserScope(ctx)
	if !ok {
		t.Fatal("no user scope in context")
	}
	return scope.Conn
}
