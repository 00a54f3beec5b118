package database

import (
	"context"
	"os"
	"testing"
)

// TestDatabaseIntegration exercises the full open/migrate/query lifecycle
// against a throwaway SQLite file.
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := "test_integration.db"
	defer os.Remove(dbPath)

	db, err := Open("sqlite", "", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := db.RunMigrations(ctx, "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Migrations must create every table the repositories touch
	tables := []string{"users", "sessions", "student_profiles", "practice_sessions", "points_entries", "trial_requests"}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Migrations are recorded and do not run twice
	if err := db.RunMigrations(ctx, "../../migrations"); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}
}

// TestInsertReturningID verifies id generation through the dialect wrapper
func TestInsertReturningID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := "test_insert.db"
	defer os.Remove(dbPath)

	db, err := Open("sqlite", "", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	id, err := db.InsertReturningID(ctx,
		"INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)",
		"it@example.com", "hash", "Integration Test", "student")
	if err != nil {
		t.Fatalf("InsertReturningID failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a non-zero id")
	}

	// The server-side points aggregate must match a client-side sum
	deltas := []int{40, -10, 25}
	for _, d := range deltas {
		_, err := db.ExecContext(ctx,
			"INSERT INTO points_entries (student_id, delta, activity) VALUES (?, ?, ?)",
			id, d, "integration")
		if err != nil {
			t.Fatalf("Failed to insert ledger entry: %v", err)
		}
	}

	var total int
	err = db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM points_entries WHERE student_id = ?", id).Scan(&total)
	if err != nil {
		t.Fatalf("Failed to sum ledger: %v", err)
	}
	if total != 55 {
		t.Errorf("SUM(delta) = %d, want 55", total)
	}
}
