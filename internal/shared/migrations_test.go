package shared

import (
	"context"
	"testing"
)

func TestMigrations(t *testing.T) {
	ctx := context.Background()

	t.Run("Migrations", func(t *testing.T) {
		migrations, err := Migrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}
		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
		if migrations[0].Name != "create_sessions" {
			t.Errorf("expected first migration create_sessions, got %s", migrations[0].Name)
		}
	})

	t.Run("Migrate and Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if _, err := db.Exec("SELECT destination_id FROM sessions LIMIT 1"); err != nil {
			t.Errorf("sessions table should exist after migrations: %v", err)
		}

		applied, _ := AppliedVersions(ctx, db)
		if err := Rollback(ctx, db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		after, _ := AppliedVersions(ctx, db)
		if len(after) != len(applied)-1 {
			t.Errorf("expected %d applied after rollback, got %d", len(applied)-1, len(after))
		}
		if _, err := db.Exec("SELECT destination_id FROM sessions LIMIT 1"); err == nil {
			t.Error("destination_id should be gone after rollback")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("first run: %v", err)
		}
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("second run: %v", err)
		}

		applied, _ := AppliedVersions(ctx, db)
		migrations, _ := Migrations()
		if len(applied) != len(migrations) {
			t.Errorf("expected %d migrations applied, got %d", len(migrations), len(applied))
		}
	})

	t.Run("OpenDatabase", func(t *testing.T) {
		db, err := OpenDatabase(ctx, DatabaseConfig{Path: ":memory:"})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
			t.Errorf("expected migrated sessions table: %v", err)
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		stmts := splitStatements("-- header\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a(x); -- trailing\n")
		if len(stmts) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
		}
		if stmts[0] != "CREATE TABLE a (x INT)" {
			t.Errorf("unexpected first statement %q", stmts[0])
		}
	})
}
