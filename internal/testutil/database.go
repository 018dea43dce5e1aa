package testutil

import (
	"context"
	"testing"

	"artsync/internal/artsync"
	"artsync/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T, clock artsync.Clock) *database.SQLiteDatabase {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB, clock)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// SeedUser creates a profile.
func SeedUser(t *testing.T, lib artsync.Library, userID string) {
	t.Helper()
	if err := lib.CreateProfile(context.Background(), userID, userID); err != nil {
		t.Fatalf("creating profile %s: %v", userID, err)
	}
}

// SeedTeam creates a team with the given members, keyed by user ID with
// their role. The profiles must already exist.
func SeedTeam(t *testing.T, lib artsync.Library, teamID string, members map[string]string) {
	t.Helper()
	ctx := context.Background()
	if err := lib.CreateTeam(ctx, teamID, teamID); err != nil {
		t.Fatalf("creating team %s: %v", teamID, err)
	}
	for userID, role := range members {
		if err := lib.AddTeamMember(ctx, teamID, userID, role); err != nil {
			t.Fatalf("adding %s to %s: %v", userID, teamID, err)
		}
	}
}

// SeedRecord stores rec and returns it with its assigned ID.
func SeedRecord(t *testing.T, lib artsync.Library, rec artsync.Record) artsync.Record {
	t.Helper()
	if err := lib.CreateRecord(context.Background(), &rec); err != nil {
		t.Fatalf("creating %s %q: %v", rec.Kind, rec.Title, err)
	}
	return rec
}
