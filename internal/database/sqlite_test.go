package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"artsync/internal/artsync"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:", fixedClock{testNow})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedPrincipals creates user u1 and u2 and team t1, where u1 is an admin
// and u2 a member.
func seedPrincipals(t *testing.T, db *SQLiteDatabase) {
	t.Helper()
	ctx := context.Background()

	for _, id := range []string{"u1", "u2", "u3"} {
		if err := db.CreateProfile(ctx, id, "User "+id); err != nil {
			t.Fatalf("CreateProfile(%s) error = %v", id, err)
		}
	}
	if err := db.CreateTeam(ctx, "t1", "Team One"); err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	if err := db.AddTeamMember(ctx, "t1", "u1", artsync.RoleAdmin); err != nil {
		t.Fatalf("AddTeamMember() error = %v", err)
	}
	if err := db.AddTeamMember(ctx, "t1", "u2", artsync.RoleMember); err != nil {
		t.Fatalf("AddTeamMember() error = %v", err)
	}
}

func TestSQLiteDatabase_Settings(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil for unknown principals", func(t *testing.T) {
		db := newTestDB(t)

		u, err := db.FindUserSettings(ctx, "nobody")
		if err != nil || u != nil {
			t.Errorf("FindUserSettings() = %v, %v, want nil, nil", u, err)
		}
		team, err := db.FindTeamSettings(ctx, "nobody")
		if err != nil || team != nil {
			t.Errorf("FindTeamSettings() = %v, %v, want nil, nil", team, err)
		}
	})

	t.Run("new profile has empty settings", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		s, err := db.FindUserSettings(ctx, "u1")
		if err != nil {
			t.Fatalf("FindUserSettings() error = %v", err)
		}
		if s == nil {
			t.Fatal("FindUserSettings() returned nil")
		}
		if s.SealedToken != "" || s.Repository != "" || !s.LastSyncedAt.IsZero() {
			t.Errorf("settings = %+v, want empty", s)
		}
	})

	t.Run("saves and reads user settings", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		want := artsync.Settings{SealedToken: "sealed", Repository: "acme/library", Branch: "dev", Folder: "lib"}
		if err := db.SaveUserSettings(ctx, "u1", want); err != nil {
			t.Fatalf("SaveUserSettings() error = %v", err)
		}

		got, err := db.FindUserSettings(ctx, "u1")
		if err != nil {
			t.Fatalf("FindUserSettings() error = %v", err)
		}
		if *got != want {
			t.Errorf("settings = %+v, want %+v", *got, want)
		}
	})

	t.Run("saves and reads team settings", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		want := artsync.Settings{SealedToken: "team-sealed", Repository: "acme/team"}
		if err := db.SaveTeamSettings(ctx, "t1", want); err != nil {
			t.Fatalf("SaveTeamSettings() error = %v", err)
		}

		got, err := db.FindTeamSettings(ctx, "t1")
		if err != nil {
			t.Fatalf("FindTeamSettings() error = %v", err)
		}
		if *got != want {
			t.Errorf("settings = %+v, want %+v", *got, want)
		}

		// The members' own settings are untouched.
		u, _ := db.FindUserSettings(ctx, "u1")
		if u.Repository != "" {
			t.Errorf("user repository = %q, want empty", u.Repository)
		}
	})

	t.Run("saving for an unknown principal fails", func(t *testing.T) {
		db := newTestDB(t)

		if err := db.SaveUserSettings(ctx, "ghost", artsync.Settings{}); err == nil {
			t.Error("SaveUserSettings() expected error")
		}
		if err := db.SaveTeamSettings(ctx, "ghost", artsync.Settings{}); err == nil {
			t.Error("SaveTeamSettings() expected error")
		}
	})
}

func TestSQLiteDatabase_FindTeamRole(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedPrincipals(t, db)

	tests := []struct {
		user string
		want string
	}{
		{"u1", artsync.RoleAdmin},
		{"u2", artsync.RoleMember},
		{"u3", ""},
	}
	for _, tt := range tests {
		got, err := db.FindTeamRole(ctx, "t1", tt.user)
		if err != nil {
			t.Fatalf("FindTeamRole(%s) error = %v", tt.user, err)
		}
		if got != tt.want {
			t.Errorf("FindTeamRole(%s) = %q, want %q", tt.user, got, tt.want)
		}
	}

	// Adding an existing member again changes the role.
	if err := db.AddTeamMember(ctx, "t1", "u2", artsync.RoleAdmin); err != nil {
		t.Fatalf("AddTeamMember() error = %v", err)
	}
	if got, _ := db.FindTeamRole(ctx, "t1", "u2"); got != artsync.RoleAdmin {
		t.Errorf("role after promotion = %q, want %q", got, artsync.RoleAdmin)
	}
}

func TestSQLiteDatabase_MarkSynced(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedPrincipals(t, db)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := db.MarkSynced(ctx, artsync.Owner{TeamID: "t1"}, at); err != nil {
		t.Fatalf("MarkSynced(team) error = %v", err)
	}

	team, _ := db.FindTeamSettings(ctx, "t1")
	if !team.LastSyncedAt.Equal(at) {
		t.Errorf("team LastSyncedAt = %v, want %v", team.LastSyncedAt, at)
	}
	user, _ := db.FindUserSettings(ctx, "u1")
	if !user.LastSyncedAt.IsZero() {
		t.Errorf("user LastSyncedAt = %v, want zero", user.LastSyncedAt)
	}

	if err := db.MarkSynced(ctx, artsync.Owner{UserID: "u1"}, at); err != nil {
		t.Fatalf("MarkSynced(user) error = %v", err)
	}
	user, _ = db.FindUserSettings(ctx, "u1")
	if !user.LastSyncedAt.Equal(at) {
		t.Errorf("user LastSyncedAt = %v, want %v", user.LastSyncedAt, at)
	}

	if err := db.MarkSynced(ctx, artsync.Owner{}, at); err == nil {
		t.Error("MarkSynced() with no owner expected error")
	}
	if err := db.MarkSynced(ctx, artsync.Owner{UserID: "ghost"}, at); err == nil {
		t.Error("MarkSynced() for unknown user expected error")
	}
}

func TestSQLiteDatabase_Records(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips every kind", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		created := time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)
		records := []*artsync.Record{
			{
				Kind: artsync.KindPrompt, Title: "Summarize Text", Slug: "summarize-text",
				Description: "Short summaries", Body: "Summarize: {{input}}", Category: "writing",
				Tags: []string{"nlp", "summary"}, IsPublic: true, RatingAverage: 4.5, RatingCount: 12,
				CreatedAt: created, Owner: artsync.Owner{UserID: "u1"},
			},
			{
				Kind: artsync.KindSkill, Title: "Review Code", Body: "Read the diff.",
				Owner: artsync.Owner{UserID: "u1"},
			},
			{
				Kind: artsync.KindWorkflow, Title: "Pipeline", Document: json.RawMessage(`{"steps":[]}`),
				Owner: artsync.Owner{UserID: "u1"},
			},
		}
		for _, rec := range records {
			if err := db.CreateRecord(ctx, rec); err != nil {
				t.Fatalf("CreateRecord(%s) error = %v", rec.Kind, err)
			}
			if rec.ID == "" {
				t.Errorf("CreateRecord(%s) did not assign an ID", rec.Kind)
			}
		}

		prompts, err := db.ListRecords(ctx, artsync.Owner{UserID: "u1"}, artsync.KindPrompt)
		if err != nil {
			t.Fatalf("ListRecords() error = %v", err)
		}
		if len(prompts) != 1 {
			t.Fatalf("len(prompts) = %d, want 1", len(prompts))
		}
		p := prompts[0]
		if p.ID != records[0].ID || p.Kind != artsync.KindPrompt || p.Title != "Summarize Text" ||
			p.Slug != "summarize-text" || p.Description != "Short summaries" ||
			p.Body != "Summarize: {{input}}" || p.Category != "writing" || !p.IsPublic ||
			p.RatingAverage != 4.5 || p.RatingCount != 12 {
			t.Errorf("prompt = %+v", p)
		}
		if len(p.Tags) != 2 || p.Tags[0] != "nlp" || p.Tags[1] != "summary" {
			t.Errorf("Tags = %v, want [nlp summary]", p.Tags)
		}
		if !p.CreatedAt.Equal(created) || !p.UpdatedAt.Equal(created) {
			t.Errorf("CreatedAt/UpdatedAt = %v/%v, want %v", p.CreatedAt, p.UpdatedAt, created)
		}
		if p.Owner != (artsync.Owner{UserID: "u1"}) {
			t.Errorf("Owner = %+v", p.Owner)
		}

		skills, _ := db.ListRecords(ctx, artsync.Owner{UserID: "u1"}, artsync.KindSkill)
		if len(skills) != 1 || skills[0].Body != "Read the diff." {
			t.Errorf("skills = %+v", skills)
		}
		if !skills[0].CreatedAt.Equal(testNow) {
			t.Errorf("default CreatedAt = %v, want clock time %v", skills[0].CreatedAt, testNow)
		}
		if len(skills[0].Tags) != 0 {
			t.Errorf("skill Tags = %v, want empty", skills[0].Tags)
		}

		workflows, _ := db.ListRecords(ctx, artsync.Owner{UserID: "u1"}, artsync.KindWorkflow)
		if len(workflows) != 1 || string(workflows[0].Document) != `{"steps":[]}` {
			t.Errorf("workflows = %+v", workflows)
		}
	})

	t.Run("lists only the requested owner", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		owners := []artsync.Owner{{UserID: "u1"}, {UserID: "u2"}, {TeamID: "t1"}, {TeamID: "t1"}}
		for i, o := range owners {
			rec := &artsync.Record{Kind: artsync.KindPrompt, Title: "p", Owner: o}
			if err := db.CreateRecord(ctx, rec); err != nil {
				t.Fatalf("CreateRecord(%d) error = %v", i, err)
			}
		}

		tests := []struct {
			owner artsync.Owner
			want  int
		}{
			{artsync.Owner{UserID: "u1"}, 1},
			{artsync.Owner{UserID: "u2"}, 1},
			{artsync.Owner{UserID: "u3"}, 0},
			{artsync.Owner{TeamID: "t1"}, 2},
		}
		for _, tt := range tests {
			got, err := db.ListRecords(ctx, tt.owner, artsync.KindPrompt)
			if err != nil {
				t.Fatalf("ListRecords(%+v) error = %v", tt.owner, err)
			}
			if len(got) != tt.want {
				t.Errorf("ListRecords(%+v) returned %d records, want %d", tt.owner, len(got), tt.want)
			}
		}
	})

	t.Run("rejects invalid ownership", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		both := &artsync.Record{Kind: artsync.KindPrompt, Title: "x", Owner: artsync.Owner{UserID: "u1", TeamID: "t1"}}
		if err := db.CreateRecord(ctx, both); err == nil {
			t.Error("CreateRecord() with two owners expected error")
		}
		if _, err := db.ListRecords(ctx, artsync.Owner{}, artsync.KindPrompt); err == nil {
			t.Error("ListRecords() with no owner expected error")
		}
	})

	t.Run("rejects unknown kinds", func(t *testing.T) {
		db := newTestDB(t)
		seedPrincipals(t, db)

		rec := &artsync.Record{Kind: "macro", Title: "x", Owner: artsync.Owner{UserID: "u1"}}
		if err := db.CreateRecord(ctx, rec); err == nil {
			t.Error("CreateRecord() with unknown kind expected error")
		}
		if _, err := db.ListRecords(ctx, artsync.Owner{UserID: "u1"}, "macro"); err == nil {
			t.Error("ListRecords() with unknown kind expected error")
		}
	})
}

func TestSQLiteDatabase_SyncRuns(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	personal := artsync.Scope{PrincipalID: "u1"}
	team := artsync.Scope{PrincipalID: "u1", TeamID: "t1"}

	id1, err := db.CreateSyncRun(ctx, personal, testNow)
	if err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}
	id2, err := db.CreateSyncRun(ctx, team, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("CreateSyncRun() error = %v", err)
	}
	if id2 <= id1 {
		t.Errorf("run IDs not increasing: %d then %d", id1, id2)
	}

	err = db.FinishSyncRun(ctx, &artsync.SyncRun{
		ID:           id1,
		FinishedAt:   testNow.Add(5 * time.Second),
		Status:       artsync.RunStatusSuccess,
		FilesUpdated: 3,
		CommitHash:   "abc123",
	})
	if err != nil {
		t.Fatalf("FinishSyncRun() error = %v", err)
	}

	runs, err := db.ListSyncRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListSyncRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}

	// Newest first.
	if runs[0].ID != id2 || runs[0].Scope != team || runs[0].Status != artsync.RunStatusRunning || runs[0].Finished() {
		t.Errorf("runs[0] = %+v, want unfinished team run", runs[0])
	}
	r := runs[1]
	if r.ID != id1 || r.Scope != personal || r.Status != artsync.RunStatusSuccess ||
		r.FilesUpdated != 3 || r.CommitHash != "abc123" || !r.Finished() {
		t.Errorf("runs[1] = %+v", r)
	}
	if !r.StartedAt.Equal(testNow) || !r.FinishedAt.Equal(testNow.Add(5*time.Second)) {
		t.Errorf("run times = %v..%v", r.StartedAt, r.FinishedAt)
	}

	limited, _ := db.ListSyncRuns(ctx, 1)
	if len(limited) != 1 || limited[0].ID != id2 {
		t.Errorf("ListSyncRuns(1) = %+v", limited)
	}
}
