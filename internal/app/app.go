package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"artsync/internal/artsync"
	"artsync/internal/config"
	"artsync/internal/database"
	"artsync/internal/database/migrations"
	"artsync/internal/encryption"
	"artsync/internal/gitgraph"
)

// App is the application layer between the CLI or HTTP server and
// SyncService. It constructs all dependencies from config, exposes
// high-level operations keyed by scope, and manages the DB lifecycle on Close.
type App struct {
	cfg      *config.Config
	db       artsync.Database
	resolver *artsync.EndpointResolver
	service  *artsync.SyncService
	logger   artsync.Logger
	clock    artsync.Clock
	op       *Operation
	logFile  *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the command being run (e.g. "Sync", "Serve").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	clock := artsync.RealClock{}

	db, err := database.NewDatabaseFromConfig(cfg.Database, clock)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run 'artsync db migrate'): %w", err)
	}

	sealer, err := encryption.NewSealerFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	provider, err := gitgraph.NewProviderFromConfig(cfg.Provider)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	op := NewOperation(operation, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := New(cfg, db, sealer, provider, &slogAdapter{l: logger}, clock)
	a.op = op
	a.logFile = logFile
	return a, nil
}

// New wires an App from already constructed dependencies.
func New(cfg *config.Config, db artsync.Database, sealer artsync.Sealer, provider artsync.Provider, logger artsync.Logger, clock artsync.Clock) *App {
	resolver := artsync.NewEndpointResolver(db, sealer, provider, logger)
	svc := artsync.NewSyncService(db, db, resolver, provider, logger, clock, artsync.Options{
		BlobConcurrency: cfg.Sync.BlobConcurrency,
		SkipUnchanged:   cfg.Sync.SkipUnchanged,
		AuthorName:      cfg.Sync.AuthorName,
		AuthorEmail:     cfg.Sync.AuthorEmail,
	})
	return &App{
		cfg:      cfg,
		db:       db,
		resolver: resolver,
		service:  svc,
		logger:   logger,
		clock:    clock,
		op:       NewOperation("Embedded", clock.Now()),
	}
}

// Migrate brings the configured database to the latest schema version and
// returns the resulting status. It does not require an up-to-date schema.
func Migrate(cfg *config.Config) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, artsync.RealClock{})
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return migrations.Status{}, err
	}
	return db.MigrationStatus()
}

// Sync publishes every record of scope and records the attempt in the run log.
func (a *App) Sync(ctx context.Context, scope artsync.Scope) (*artsync.Result, error) {
	started := a.clock.Now()
	id, err := a.db.CreateSyncRun(ctx, scope, started)
	if err != nil {
		return nil, err
	}

	a.logger.Info("sync started", "operation", a.op.Name, "run", id, "scope", scope.String())
	res, syncErr := a.service.Sync(ctx, scope)

	run := finishRun(&artsync.SyncRun{ID: id, Scope: scope, StartedAt: started}, res, syncErr, a.clock.Now())
	if err := a.db.FinishSyncRun(ctx, run); err != nil {
		a.logger.Error("recording sync run failed", "run", id, "error", err)
		if syncErr == nil {
			return res, err
		}
	}
	return res, syncErr
}

// TestConnection checks the configured repository of scope without writing.
func (a *App) TestConnection(ctx context.Context, scope artsync.Scope) (*artsync.RepositoryInfo, error) {
	return a.resolver.TestConnection(ctx, scope)
}

// SetEndpoint stores the sync target of scope, sealing the token.
func (a *App) SetEndpoint(ctx context.Context, scope artsync.Scope, in artsync.EndpointInput) error {
	return a.resolver.Configure(ctx, scope, in)
}

// EndpointView is the displayable part of a stored sync target.
// The token itself is never returned.
type EndpointView struct {
	Scope        artsync.Scope
	Repository   string
	Branch       string
	Folder       string
	TokenSet     bool
	LastSyncedAt time.Time
}

// ShowEndpoint returns the stored sync target of scope.
func (a *App) ShowEndpoint(ctx context.Context, scope artsync.Scope) (*EndpointView, error) {
	s, err := a.resolver.LoadSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	branch := s.Branch
	if branch == "" {
		branch = artsync.DefaultBranch
	}
	return &EndpointView{
		Scope:        scope,
		Repository:   s.Repository,
		Branch:       branch,
		Folder:       artsync.NormalizeFolder(s.Folder),
		TokenSet:     s.SealedToken != "",
		LastSyncedAt: s.LastSyncedAt,
	}, nil
}

// History returns the most recent sync runs.
func (a *App) History(ctx context.Context, limit int) ([]*artsync.SyncRun, error) {
	return a.db.ListSyncRuns(ctx, limit)
}

// AddProfile creates a user profile.
func (a *App) AddProfile(ctx context.Context, userID, displayName string) error {
	return a.db.CreateProfile(ctx, userID, displayName)
}

// AddTeam creates a team with adminID as its first admin.
func (a *App) AddTeam(ctx context.Context, teamID, name, adminID string) error {
	if err := a.db.CreateTeam(ctx, teamID, name); err != nil {
		return err
	}
	return a.db.AddTeamMember(ctx, teamID, adminID, artsync.RoleAdmin)
}

// AddTeamMember adds userID to teamID. Only team admins may add members.
func (a *App) AddTeamMember(ctx context.Context, scope artsync.Scope, userID, role string) error {
	if !scope.IsTeam() {
		return &artsync.ConfigError{Msg: "a team scope is required"}
	}
	if role != artsync.RoleAdmin && role != artsync.RoleMember {
		return &artsync.ConfigError{Msg: fmt.Sprintf("unknown role %q: use %q or %q", role, artsync.RoleAdmin, artsync.RoleMember)}
	}
	current, err := a.db.FindTeamRole(ctx, scope.TeamID, scope.PrincipalID)
	if err != nil {
		return err
	}
	if current != artsync.RoleAdmin {
		return &artsync.ConfigError{Msg: fmt.Sprintf("only admins of team %s can add members", scope.TeamID)}
	}
	return a.db.AddTeamMember(ctx, scope.TeamID, userID, role)
}

// Logger returns the application logger.
func (a *App) Logger() artsync.Logger {
	return a.logger
}

// Close closes the database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
