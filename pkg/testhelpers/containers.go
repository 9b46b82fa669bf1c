package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/database"
)

// PostgresImage is the PostgreSQL image used for integration tests.
const PostgresImage = "postgres:16-alpine"

const (
	adminUser = "postgres"
	adminPass = "test_password"
	appUser   = "onboardlens_app"
	appPass   = "app_password"
	dbName    = "onboardlens_test"
)

// TestDB holds a shared test database container and connection pools.
type TestDB struct {
	Container testcontainers.Container
	// AdminPool connects as the superuser. Superusers bypass row-level
	// security, so use it for fixtures and cleanup only.
	AdminPool *pgxpool.Pool
	// DB connects as an unprivileged role so RLS policies apply.
	DB      *database.DB
	ConnStr string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
// Migrations are applied before the first test gets the handle.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       dbName,
			"POSTGRES_USER":     adminUser,
			"POSTGRES_PASSWORD": adminPass,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	adminConnStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		adminUser, adminPass, host, port.Port(), dbName)

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", adminConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	adminPool, err := pgxpool.New(ctx, adminConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin pool: %w", err)
	}

	if err := createAppRole(ctx, adminPool); err != nil {
		return nil, err
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		appUser, appPass, host, port.Port(), dbName)

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect as app role: %w", err)
	}

	return &TestDB{
		Container: container,
		AdminPool: adminPool,
		DB:        db,
		ConnStr:   connStr,
	}, nil
}

func createAppRole(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		fmt.Sprintf("CREATE ROLE %s LOGIN NOSUPERUSER NOBYPASSRLS PASSWORD '%s'", appUser, appPass),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s", appUser),
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare app role: %w", err)
		}
	}
	return nil
}

// UserContext returns a context bound to userID through a user scope,
// as the request middleware would build it. The scope is released on test cleanup.
func (tdb *TestDB) UserContext(t *testing.T, userID uuid.UUID) context.Context {
	t.Helper()

	scope, err := tdb.DB.WithUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("Failed to bind user scope: %v", err)
	}
	t.Cleanup(scope.Close)

	return database.SetUserScope(context.Background(), scope)
}

// CleanupUser deletes every row owned by userID.
func (tdb *TestDB) CleanupUser(t *testing.T, userID uuid.UUID) {
	t.Helper()
	// ai_insights and funnel_reports cascade from projects.
	if _, err := tdb.AdminPool.Exec(context.Background(), "DELETE FROM projects WHERE owner_id = $1", userID); err != nil {
		t.Logf("cleanup for user %s failed: %v", userID, err)
	}
}
