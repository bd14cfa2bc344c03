// Package testutils provides shared helpers for tests that need a real
// PostgreSQL database. Tests using these helpers skip automatically when
// no test database is configured.
package testutils

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"

	"github.com/taskflow-app/taskflow-api/migrations"
)

// dbURLEnvVars lists the environment variables checked, in order, for the
// test database connection string.
var dbURLEnvVars = []string{"TASKFLOW_TEST_DB_URL", "DATABASE_URL"}

// GetTestDB opens a connection to the configured test database and applies
// the schema migrations. The test is skipped when no database URL is set,
// so the suite stays runnable without infrastructure.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	var dbURL string
	for _, name := range dbURLEnvVars {
		if v := os.Getenv(name); v != "" {
			dbURL = v
			break
		}
	}
	if dbURL == "" {
		t.Skip("no test database configured; set TASKFLOW_TEST_DB_URL to run")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("failed to set goose dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return db
}

// ResetTestData truncates all application tables between test cases.
func ResetTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE push_subscriptions, notifications, activity_log, comments, tasks, users CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset test data: %v", err)
	}
}
