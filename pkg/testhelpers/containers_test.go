//go:build integration

package testhelpers

import (
	"context"
	"testing"
)

func TestTestDB_SchemaPresent(t *testing.T) {
	testDB := GetTestDB(t)

	ctx := context.Background()

	var tableCount int
	err := testDB.AdminPool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name IN ('projects', 'funnel_reports', 'ai_insights')`).
		Scan(&tableCount)
	if err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}

	if tableCount != 3 {
		t.Errorf("expected 3 application tables, got %d", tableCount)
	}
}

func TestTestDB_AppRoleIsNotSuperuser(t *testing.T) {
	testDB := GetTestDB(t)

	var superuser bool
	err := testDB.DB.Pool.QueryRow(context.Background(),
		"SELECT rolsuper FROM pg_roles WHERE rolname = current_user").Scan(&superuser)
	if err != nil {
		t.Fatalf("failed to read role: %v", err)
	}
	if superuser {
		t.Error("app role must not be a superuser, RLS would be bypassed")
	}
}
