// AngelaMos | 2026
// db.go

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/migrations"
)

const testDBLockID int64 = 7_401_220_113

// NewTestDatabase returns a migrated, emptied database. TEST_DATABASE_URL
// wins when set; otherwise a throwaway postgres container is started. The
// test is skipped when neither is reachable.
func NewTestDatabase(t *testing.T) *core.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = startContainer(t, ctx)
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		t.Skipf("skipping postgres integration test: %v", err)
	}
	db.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = db.Close() })

	lockTestDB(t, ctx, db)

	require.NoError(t, migrations.Up(db.DB), "apply migrations")
	Truncate(t, db)

	return &core.Database{DB: db}
}

func startContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("meetstack_test"),
		postgres.WithUsername("meetstack"),
		postgres.WithPassword("meetstack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping postgres integration test: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return dsn
}

// Truncate empties every table and leaves only the seeded free plan.
func Truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()

	_, err := db.Exec(`
		TRUNCATE event_memberships, events, subscriptions, daily_quotas,
		         coupons, identity_accounts, profiles
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate")

	_, err = db.Exec(`DELETE FROM plans WHERE name <> 'free'`)
	require.NoError(t, err, "reset plans")
}

// InsertProfile seeds an active profile row.
func InsertProfile(t *testing.T, db *sqlx.DB, id, email string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO profiles (id, email, password_hash, status)
		VALUES ($1, $2, '!test', 'active')`,
		id, email,
	)
	require.NoError(t, err, "insert profile")
}

func CountRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func lockTestDB(t *testing.T, ctx context.Context, db *sqlx.DB) {
	t.Helper()

	conn, err := db.Connx(ctx)
	require.NoError(t, err, "acquire lock conn")

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, testDBLockID); err != nil {
		_ = conn.Close()
		t.Fatalf("acquire test lock: %v", err)
	}

	t.Cleanup(func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, testDBLockID)
		_ = conn.Close()
	})
}
