package artsync

import (
	"context"
	"time"
)

// RecordStore is the read-only view of the content record tables.
type RecordStore interface {
	// ListRecords returns every record of kind owned by owner.
	// Order is unspecified; SerializeBatch imposes the canonical order.
	ListRecords(ctx context.Context, owner Owner, kind Kind) ([]Record, error)
}

// SettingsStore holds per-user and per-team sync configuration.
type SettingsStore interface {
	// FindUserSettings returns the settings of a user profile.
	// Returns nil, nil if the profile does not exist.
	FindUserSettings(ctx context.Context, userID string) (*Settings, error)

	// FindTeamSettings returns the settings of a team.
	// Returns nil, nil if the team does not exist.
	FindTeamSettings(ctx context.Context, teamID string) (*Settings, error)

	// FindTeamRole returns the role of userID within teamID, or "" when
	// the user is not a member.
	FindTeamRole(ctx context.Context, teamID, userID string) (string, error)

	// SaveUserSettings replaces the sync settings of a user profile.
	// LastSyncedAt is left untouched.
	SaveUserSettings(ctx context.Context, userID string, settings Settings) error

	// SaveTeamSettings replaces the sync settings of a team.
	// LastSyncedAt is left untouched.
	SaveTeamSettings(ctx context.Context, teamID string, settings Settings) error

	// MarkSynced stamps the last-synced time on the owning principal.
	MarkSynced(ctx context.Context, owner Owner, at time.Time) error
}

// SyncRun is one recorded sync attempt.
type SyncRun struct {
	ID           int64
	Scope        Scope
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	FilesUpdated int
	CommitHash   string
	Message      string
}

// Finished reports whether the run has completed (successfully or not).
func (r *SyncRun) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Sync run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// RunLog records sync attempts for the history command.
type RunLog interface {
	// CreateSyncRun records the start of a run and returns its ID.
	CreateSyncRun(ctx context.Context, scope Scope, startedAt time.Time) (int64, error)

	// FinishSyncRun records the outcome of a run.
	FinishSyncRun(ctx context.Context, run *SyncRun) error

	// ListSyncRuns returns the most recent runs, newest first.
	ListSyncRuns(ctx context.Context, limit int) ([]*SyncRun, error)
}

// Team roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Library is the write side of the store used by the admin and import
// commands. Editing records is otherwise owned by the web application.
type Library interface {
	CreateProfile(ctx context.Context, id, displayName string) error
	CreateTeam(ctx context.Context, id, name string) error
	AddTeamMember(ctx context.Context, teamID, userID, role string) error

	// CreateRecord stores rec, assigning an ID when it has none.
	CreateRecord(ctx context.Context, rec *Record) error
}

// Database is the full storage surface used by the application.
type Database interface {
	RecordStore
	SettingsStore
	RunLog
	Library

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
