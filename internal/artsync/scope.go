package artsync

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Scope is the ownership context of a sync run. PrincipalID is the user who
// triggered the run; TeamID is set for team publishes and empty for personal ones.
type Scope struct {
	PrincipalID string
	TeamID      string
}

// ParseScope parses "personal" or "team:<id>" on behalf of principal.
func ParseScope(raw string, principal string) (Scope, error) {
	if principal == "" {
		return Scope{}, &ConfigError{Msg: "no principal supplied"}
	}
	switch {
	case raw == "" || raw == "personal":
		return Scope{PrincipalID: principal}, nil
	case strings.HasPrefix(raw, "team:"):
		teamID := strings.TrimPrefix(raw, "team:")
		if teamID == "" {
			return Scope{}, &ConfigError{Msg: "team scope is missing a team id"}
		}
		return Scope{PrincipalID: principal, TeamID: teamID}, nil
	default:
		return Scope{}, &ConfigError{Msg: fmt.Sprintf("unknown scope %q: use \"personal\" or \"team:<id>\"", raw)}
	}
}

// IsTeam reports whether the scope targets a team.
func (s Scope) IsTeam() bool {
	return s.TeamID != ""
}

// Owner returns the record owner selected by this scope.
func (s Scope) Owner() Owner {
	if s.IsTeam() {
		return Owner{TeamID: s.TeamID}
	}
	return Owner{UserID: s.PrincipalID}
}

// String renders the scope as it appears in logs and commit messages.
func (s Scope) String() string {
	if s.IsTeam() {
		return fmt.Sprintf("user:%s for team:%s", s.PrincipalID, s.TeamID)
	}
	return "user:" + s.PrincipalID
}

// Secret is an access credential. It never prints its value.
type Secret string

const redacted = "[redacted]"

func (Secret) String() string   { return redacted }
func (Secret) GoString() string { return redacted }

// LogValue keeps the credential out of structured logs.
func (Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// Reveal returns the raw credential for use in an Authorization header.
func (s Secret) Reveal() string { return string(s) }

// Settings is the stored sync configuration for one user or one team.
// SealedToken is the credential as stored, encrypted by a Sealer.
type Settings struct {
	SealedToken  string
	Repository   string
	Branch       string
	Folder       string
	LastSyncedAt time.Time
}

// DefaultBranch is used when a configuration does not name a branch.
const DefaultBranch = "main"

// Repository identifies a repository on the hosting provider.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Endpoint is a validated sync target ready for the orchestrator.
type Endpoint struct {
	Token      Secret
	Repository Repository
	Branch     string
	Folder     string
}
