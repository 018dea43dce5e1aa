package migrations

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	err := MigrateUp(db)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{"profiles", "teams", "team_members", "prompts", "skills", "workflows", "sync_runs", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration
	err := CheckDBMigrationStatus(db)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	// Error should mention needing migration
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Status should be OK now
	err := CheckDBMigrationStatus(db)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Run migration twice
	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	// Status should still be OK
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// A membership for a team that does not exist must be rejected.
	_, err := db.Exec(`
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ('no-such-team', 'no-such-user', 'member')
	`)

	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_RecordOwnership(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	mustExec := func(q string) {
		t.Helper()
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	mustExec("INSERT INTO profiles (id, created_at) VALUES ('u1', datetime('now'))")
	mustExec("INSERT INTO teams (id, created_at) VALUES ('t1', datetime('now'))")

	tests := []struct {
		name    string
		owner   string
		wantErr bool
	}{
		{"user owned", "'u1', NULL", false},
		{"team owned", "NULL, 't1'", false},
		{"no owner", "NULL, NULL", true},
		{"both owners", "'u1', 't1'", true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, table := range []string{"prompts", "skills", "workflows"} {
				_, err := db.Exec(fmt.Sprintf(
					"INSERT INTO %s (id, user_id, team_id, title, created_at, updated_at) VALUES ('%s-%d', %s, 'x', datetime('now'), datetime('now'))",
					table, table, i, tt.owner))
				if (err != nil) != tt.wantErr {
					t.Errorf("%s insert error = %v, wantErr %v", table, err, tt.wantErr)
				}
			}
		})
	}
}

func TestSchema_TeamRoleCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO profiles (id, created_at) VALUES ('u1', datetime('now'))"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO teams (id, created_at) VALUES ('t1', datetime('now'))"); err != nil {
		t.Fatal(err)
	}

	_, err := db.Exec("INSERT INTO team_members (team_id, user_id, role) VALUES ('t1', 'u1', 'owner')")
	if err == nil {
		t.Error("Expected check constraint violation for unknown role, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}

func TestReadStatus(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	before, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if before.Version != 0 || before.Latest == 0 || before.Pending() != before.Latest {
		t.Errorf("fresh status = %+v, want version 0 with every migration pending", before)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	after, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if after.Version != after.Latest || after.Pending() != 0 || after.Dirty {
		t.Errorf("migrated status = %+v, want up to date", after)
	}
}
