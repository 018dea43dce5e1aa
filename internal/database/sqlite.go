package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"artsync/internal/artsync"
	"artsync/internal/database/migrations"
	"artsync/internal/database/sqlc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the Database interface using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	clock   artsync.Clock
	path    string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// A nil clock uses the real clock.
func NewSQLiteDatabase(path string, clock artsync.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := NewSQLiteDatabaseFromDB(db, clock)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock artsync.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = artsync.RealClock{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: every new connection to ":memory:" is a fresh empty
	// database, and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Profile and team operations

func (s *SQLiteDatabase) CreateProfile(ctx context.Context, id, displayName string) error {
	err := s.queries.InsertProfile(ctx, sqlc.InsertProfileParams{
		ID:          id,
		DisplayName: displayName,
		CreatedAt:   s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating profile %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) CreateTeam(ctx context.Context, id, name string) error {
	err := s.queries.InsertTeam(ctx, sqlc.InsertTeamParams{
		ID:        id,
		Name:      name,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating team %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) AddTeamMember(ctx context.Context, teamID, userID, role string) error {
	err := s.queries.InsertTeamMember(ctx, sqlc.InsertTeamMemberParams{
		TeamID: teamID,
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		return fmt.Errorf("adding %s to team %s: %w", userID, teamID, err)
	}
	return nil
}

func (s *SQLiteDatabase) FindTeamRole(ctx context.Context, teamID, userID string) (string, error) {
	role, err := s.queries.GetTeamMemberRole(ctx, sqlc.GetTeamMemberRoleParams{
		TeamID: teamID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // Not a member
		}
		return "", fmt.Errorf("finding team role: %w", err)
	}
	return role, nil
}

// Settings operations

func (s *SQLiteDatabase) FindUserSettings(ctx context.Context, userID string) (*artsync.Settings, error) {
	p, err := s.queries.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding profile: %w", err)
	}
	return &artsync.Settings{
		SealedToken:  p.GitToken,
		Repository:   p.GitRepository,
		Branch:       p.GitBranch,
		Folder:       p.GitFolder,
		LastSyncedAt: nullTime(p.LastSyncedAt),
	}, nil
}

func (s *SQLiteDatabase) FindTeamSettings(ctx context.Context, teamID string) (*artsync.Settings, error) {
	t, err := s.queries.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding team: %w", err)
	}
	return &artsync.Settings{
		SealedToken:  t.GitToken,
		Repository:   t.GitRepository,
		Branch:       t.GitBranch,
		Folder:       t.GitFolder,
		LastSyncedAt: nullTime(t.LastSyncedAt),
	}, nil
}

func (s *SQLiteDatabase) SaveUserSettings(ctx context.Context, userID string, settings artsync.Settings) error {
	n, err := s.queries.UpdateProfileGitSettings(ctx, sqlc.UpdateProfileGitSettingsParams{
		GitToken:      settings.SealedToken,
		GitRepository: settings.Repository,
		GitBranch:     settings.Branch,
		GitFolder:     settings.Folder,
		ID:            userID,
	})
	if err != nil {
		return fmt.Errorf("saving profile settings: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %s not found", userID)
	}
	return nil
}

func (s *SQLiteDatabase) SaveTeamSettings(ctx context.Context, teamID string, settings artsync.Settings) error {
	n, err := s.queries.UpdateTeamGitSettings(ctx, sqlc.UpdateTeamGitSettingsParams{
		GitToken:      settings.SealedToken,
		GitRepository: settings.Repository,
		GitBranch:     settings.Branch,
		GitFolder:     settings.Folder,
		ID:            teamID,
	})
	if err != nil {
		return fmt.Errorf("saving team settings: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("team %s not found", teamID)
	}
	return nil
}

func (s *SQLiteDatabase) MarkSynced(ctx context.Context, owner artsync.Owner, at time.Time) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	ts := sql.NullTime{Time: at.UTC(), Valid: true}
	var (
		n   int64
		err error
	)
	if owner.TeamID != "" {
		n, err = s.queries.UpdateTeamLastSynced(ctx, sqlc.UpdateTeamLastSyncedParams{LastSyncedAt: ts, ID: owner.TeamID})
	} else {
		n, err = s.queries.UpdateProfileLastSynced(ctx, sqlc.UpdateProfileLastSyncedParams{LastSyncedAt: ts, ID: owner.UserID})
	}
	if err != nil {
		return fmt.Errorf("stamping last synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("owner %+v not found", owner)
	}
	return nil
}

// Record operations

func (s *SQLiteDatabase) ListRecords(ctx context.Context, owner artsync.Owner, kind artsync.Kind) ([]artsync.Record, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	userID, teamID := nullString(owner.UserID), nullString(owner.TeamID)

	var records []artsync.Record
	switch kind {
	case artsync.KindPrompt:
		rows, err := s.queries.ListPromptsByOwner(ctx, sqlc.ListPromptsByOwnerParams{UserID: userID, TeamID: teamID})
		if err != nil {
			return nil, fmt.Errorf("listing prompts: %w", err)
		}
		for _, r := range rows {
			rec, err := recordFromRow(kind, r.ID, r.UserID, r.TeamID, r.Tags, r.CreatedAt, r.UpdatedAt)
			if err != nil {
				return nil, err
			}
			rec.Title, rec.Slug, rec.Description, rec.Category = r.Title, r.Slug, r.Description, r.Category
			rec.Body = r.Content
			rec.IsPublic, rec.RatingAverage, rec.RatingCount = r.IsPublic, r.RatingAverage, r.RatingCount
			records = append(records, rec)
		}
	case artsync.KindSkill:
		rows, err := s.queries.ListSkillsByOwner(ctx, sqlc.ListSkillsByOwnerParams{UserID: userID, TeamID: teamID})
		if err != nil {
			return nil, fmt.Errorf("listing skills: %w", err)
		}
		for _, r := range rows {
			rec, err := recordFromRow(kind, r.ID, r.UserID, r.TeamID, r.Tags, r.CreatedAt, r.UpdatedAt)
			if err != nil {
				return nil, err
			}
			rec.Title, rec.Slug, rec.Description, rec.Category = r.Title, r.Slug, r.Description, r.Category
			rec.Body = r.Instructions
			rec.IsPublic, rec.RatingAverage, rec.RatingCount = r.IsPublic, r.RatingAverage, r.RatingCount
			records = append(records, rec)
		}
	case artsync.KindWorkflow:
		rows, err := s.queries.ListWorkflowsByOwner(ctx, sqlc.ListWorkflowsByOwnerParams{UserID: userID, TeamID: teamID})
		if err != nil {
			return nil, fmt.Errorf("listing workflows: %w", err)
		}
		for _, r := range rows {
			rec, err := recordFromRow(kind, r.ID, r.UserID, r.TeamID, r.Tags, r.CreatedAt, r.UpdatedAt)
			if err != nil {
				return nil, err
			}
			rec.Title, rec.Slug, rec.Description, rec.Category = r.Title, r.Slug, r.Description, r.Category
			if r.Definition != "" {
				rec.Document = json.RawMessage(r.Definition)
			}
			rec.IsPublic, rec.RatingAverage, rec.RatingCount = r.IsPublic, r.RatingAverage, r.RatingCount
			records = append(records, rec)
		}
	default:
		return nil, fmt.Errorf("unknown record kind: %s", kind)
	}
	return records, nil
}

func (s *SQLiteDatabase) CreateRecord(ctx context.Context, rec *artsync.Record) error {
	if err := rec.Owner.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := s.clock.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}

	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	userID, teamID := nullString(rec.Owner.UserID), nullString(rec.Owner.TeamID)
	createdAt, updatedAt := rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()

	switch rec.Kind {
	case artsync.KindPrompt:
		err = s.queries.InsertPrompt(ctx, sqlc.InsertPromptParams{
			ID: rec.ID, UserID: userID, TeamID: teamID,
			Title: rec.Title, Slug: rec.Slug, Description: rec.Description,
			Content: rec.Body, Category: rec.Category, Tags: string(encodedTags),
			IsPublic: rec.IsPublic, RatingAverage: rec.RatingAverage, RatingCount: rec.RatingCount,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	case artsync.KindSkill:
		err = s.queries.InsertSkill(ctx, sqlc.InsertSkillParams{
			ID: rec.ID, UserID: userID, TeamID: teamID,
			Title: rec.Title, Slug: rec.Slug, Description: rec.Description,
			Instructions: rec.Body, Category: rec.Category, Tags: string(encodedTags),
			IsPublic: rec.IsPublic, RatingAverage: rec.RatingAverage, RatingCount: rec.RatingCount,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	case artsync.KindWorkflow:
		err = s.queries.InsertWorkflow(ctx, sqlc.InsertWorkflowParams{
			ID: rec.ID, UserID: userID, TeamID: teamID,
			Title: rec.Title, Slug: rec.Slug, Description: rec.Description,
			Definition: string(rec.Document), Category: rec.Category, Tags: string(encodedTags),
			IsPublic: rec.IsPublic, RatingAverage: rec.RatingAverage, RatingCount: rec.RatingCount,
			CreatedAt: createdAt, UpdatedAt: updatedAt,
		})
	default:
		return fmt.Errorf("unknown record kind: %s", rec.Kind)
	}
	if err != nil {
		return fmt.Errorf("creating %s %s: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

// recordFromRow fills the columns every record table shares.
func recordFromRow(kind artsync.Kind, id string, userID, teamID sql.NullString, tags string, createdAt, updatedAt time.Time) (artsync.Record, error) {
	rec := artsync.Record{
		Kind:      kind,
		ID:        id,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
		Owner:     artsync.Owner{UserID: userID.String, TeamID: teamID.String},
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
			return artsync.Record{}, fmt.Errorf("decoding tags of %s %s: %w", kind, id, err)
		}
	}
	return rec, nil
}

// Sync run tracking

func (s *SQLiteDatabase) CreateSyncRun(ctx context.Context, scope artsync.Scope, startedAt time.Time) (int64, error) {
	id, err := s.queries.InsertSyncRun(ctx, sqlc.InsertSyncRunParams{
		PrincipalID: scope.PrincipalID,
		TeamID:      scope.TeamID,
		StartedAt:   startedAt.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("creating sync run: %w", err)
	}
	return id, nil
}

func (s *SQLiteDatabase) FinishSyncRun(ctx context.Context, run *artsync.SyncRun) error {
	err := s.queries.UpdateSyncRunFinished(ctx, sqlc.UpdateSyncRunFinishedParams{
		FinishedAt:   sql.NullTime{Time: run.FinishedAt.UTC(), Valid: !run.FinishedAt.IsZero()},
		Status:       run.Status,
		FilesUpdated: int64(run.FilesUpdated),
		CommitHash:   run.CommitHash,
		Message:      run.Message,
		ID:           run.ID,
	})
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListSyncRuns(ctx context.Context, limit int) ([]*artsync.SyncRun, error) {
	rows, err := s.queries.ListSyncRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}

	result := make([]*artsync.SyncRun, len(rows))
	for i, r := range rows {
		result[i] = &artsync.SyncRun{
			ID:           r.ID,
			Scope:        artsync.Scope{PrincipalID: r.PrincipalID, TeamID: r.TeamID},
			StartedAt:    r.StartedAt.UTC(),
			FinishedAt:   nullTime(r.FinishedAt),
			Status:       r.Status,
			FilesUpdated: int(r.FilesUpdated),
			CommitHash:   r.CommitHash,
			Message:      r.Message,
		}
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrationStatus reports the schema version against the embedded migrations.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// Migrate applies any pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements artsync.Database interface
var _ artsync.Database = (*SQLiteDatabase)(nil)
