package artsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EndpointResolver turns stored per-principal settings into a validated
// Endpoint.
type EndpointResolver struct {
	settings SettingsStore
	sealer   Sealer
	provider Provider
	logger   Logger
}

// NewEndpointResolver creates an EndpointResolver.
func NewEndpointResolver(settings SettingsStore, sealer Sealer, provider Provider, logger Logger) *EndpointResolver {
	return &EndpointResolver{
		settings: settings,
		sealer:   sealer,
		provider: provider,
		logger:   logger,
	}
}

// LoadSettings returns the stored settings for scope. For team scopes the
// principal must be a member of the team.
func (r *EndpointResolver) LoadSettings(ctx context.Context, scope Scope) (*Settings, error) {
	if scope.PrincipalID == "" {
		return nil, &ConfigError{Msg: "no principal supplied"}
	}

	if !scope.IsTeam() {
		s, err := r.settings.FindUserSettings(ctx, scope.PrincipalID)
		if err != nil {
			return nil, &ConfigError{Msg: "looking up profile", Err: err}
		}
		if s == nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("profile %s not found", scope.PrincipalID)}
		}
		return s, nil
	}

	role, err := r.settings.FindTeamRole(ctx, scope.TeamID, scope.PrincipalID)
	if err != nil {
		return nil, &ConfigError{Msg: "looking up team membership", Err: err}
	}
	if role == "" {
		return nil, &ConfigError{Msg: fmt.Sprintf("user %s is not a member of team %s", scope.PrincipalID, scope.TeamID)}
	}

	s, err := r.settings.FindTeamSettings(ctx, scope.TeamID)
	if err != nil {
		return nil, &ConfigError{Msg: "looking up team", Err: err}
	}
	if s == nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("team %s not found", scope.TeamID)}
	}
	return s, nil
}

// Resolve loads and validates the sync target for scope.
func (r *EndpointResolver) Resolve(ctx context.Context, scope Scope) (*Endpoint, error) {
	s, err := r.LoadSettings(ctx, scope)
	if err != nil {
		return nil, err
	}

	if s.SealedToken == "" {
		return nil, &ConfigError{Msg: "no access token configured: add your access token in settings"}
	}
	if strings.TrimSpace(s.Repository) == "" {
		return nil, &ConfigError{Msg: "no repository configured: set owner/name in settings"}
	}

	repo, err := ParseRepository(s.Repository)
	if err != nil {
		return nil, err
	}

	token, err := r.sealer.Open(s.SealedToken)
	if err != nil {
		return nil, &ConfigError{Msg: "stored access token cannot be read: set it again in settings", Err: err}
	}

	branch := strings.TrimSpace(s.Branch)
	if branch == "" {
		branch = DefaultBranch
	}

	return &Endpoint{
		Token:      token,
		Repository: repo,
		Branch:     branch,
		Folder:     NormalizeFolder(s.Folder),
	}, nil
}

// ParseRepository splits an "owner/name" identifier.
func ParseRepository(id string) (Repository, error) {
	id = strings.TrimSpace(id)
	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, &ConfigError{Msg: fmt.Sprintf("repository %q must have the form owner/name", id)}
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

// TestConnection checks that the configured repository is readable and
// writable with the stored token. It never writes.
func (r *EndpointResolver) TestConnection(ctx context.Context, scope Scope) (*RepositoryInfo, error) {
	ep, err := r.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}

	info, err := r.provider.Graph(ep.Token).Repository(ctx, ep.Repository)
	if err != nil {
		r.logger.Warn("connection test failed", "repository", ep.Repository.String(), "error", err)
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrRepositoryNotFound) {
			return nil, &ConfigError{Msg: fmt.Sprintf("repository %s is not reachable with this token", ep.Repository), Err: err}
		}
		return nil, &UpstreamError{Step: "read repository", Err: err}
	}
	if info.CanPush != nil && !*info.CanPush {
		return nil, &ConfigError{Msg: fmt.Sprintf("token cannot push to %s", ep.Repository)}
	}

	r.logger.Info("connection test passed", "repository", ep.Repository.String())
	return &info, nil
}

// EndpointInput is a new sync target as entered by a user.
type EndpointInput struct {
	Token      Secret
	Repository string
	Branch     string
	Folder     string
}

// Configure stores a sync target for scope. Team targets may only be set
// by team admins. An empty token keeps the stored one.
func (r *EndpointResolver) Configure(ctx context.Context, scope Scope, in EndpointInput) error {
	current, err := r.LoadSettings(ctx, scope)
	if err != nil {
		return err
	}
	if scope.IsTeam() {
		role, err := r.settings.FindTeamRole(ctx, scope.TeamID, scope.PrincipalID)
		if err != nil {
			return &ConfigError{Msg: "looking up team membership", Err: err}
		}
		if role != RoleAdmin {
			return &ConfigError{Msg: fmt.Sprintf("only admins of team %s can change its repository", scope.TeamID)}
		}
	}

	repo, err := ParseRepository(in.Repository)
	if err != nil {
		return err
	}

	next := Settings{
		SealedToken: current.SealedToken,
		Repository:  repo.String(),
		Branch:      strings.TrimSpace(in.Branch),
		Folder:      NormalizeFolder(in.Folder),
	}
	if in.Token.Reveal() != "" {
		if !r.sealer.IsConfigured() {
			return &ConfigError{Msg: "no encryption key: run 'artsync keys init' first"}
		}
		sealed, err := r.sealer.Seal(in.Token)
		if err != nil {
			return fmt.Errorf("sealing access token: %w", err)
		}
		next.SealedToken = sealed
	}

	if scope.IsTeam() {
		err = r.settings.SaveTeamSettings(ctx, scope.TeamID, next)
	} else {
		err = r.settings.SaveUserSettings(ctx, scope.PrincipalID, next)
	}
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	r.logger.Info("sync target updated", "scope", scope.String(), "repository", next.Repository, "branch", next.Branch)
	return nil
}
