package artsync

import (
	"context"
	"time"
)

// HeadState describes what resolving a branch found.
type HeadState int

const (
	// HeadResolved means the branch exists and points at Commit.
	HeadResolved HeadState = iota
	// HeadMissing means the repository has history but not this branch.
	HeadMissing
	// HeadEmptyRepository means the repository has no commits at all.
	HeadEmptyRepository
)

func (s HeadState) String() string {
	switch s {
	case HeadResolved:
		return "resolved"
	case HeadMissing:
		return "missing"
	case HeadEmptyRepository:
		return "empty-repository"
	default:
		return "unknown"
	}
}

// BranchHead is the result of ResolveBranchHead. A missing branch or an
// empty repository is a state, not an error.
type BranchHead struct {
	State  HeadState
	Commit string
}

// BaseCommit is the commit a sync builds on.
type BaseCommit struct {
	Hash     string
	TreeHash string
}

// TreeEntry maps a repository path to a blob.
type TreeEntry struct {
	Path     string
	BlobHash string
}

// Signature identifies the author of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitRequest describes a commit to create. Parent is empty only for the
// first commit of a branch; Author is optional.
type CommitRequest struct {
	Message string
	Tree    string
	Parent  string
	Author  *Signature
}

// RepositoryInfo is the subset of repository metadata used to test a connection.
type RepositoryInfo struct {
	FullName      string
	DefaultBranch string
	// CanPush is nil when the provider did not report permissions.
	CanPush *bool
}

// ObjectGraph wraps the hosting provider's git object primitives for one
// credential. Every method is a single network call without retries.
type ObjectGraph interface {
	ResolveBranchHead(ctx context.Context, repo Repository, branch string) (BranchHead, error)
	CommitTree(ctx context.Context, repo Repository, commit string) (string, error)
	CreateBlob(ctx context.Context, repo Repository, content []byte) (string, error)
	CreateTree(ctx context.Context, repo Repository, baseTree string, entries []TreeEntry) (string, error)
	CreateCommit(ctx context.Context, repo Repository, req CommitRequest) (string, error)
	// UpdateBranchRef fast-forwards branch to commit; returns ErrConflict if
	// the branch is no longer an ancestor of commit.
	UpdateBranchRef(ctx context.Context, repo Repository, branch, commit string) error
	// CreateBranchRef creates a branch that does not exist yet; returns
	// ErrConflict if it appeared in the meantime.
	CreateBranchRef(ctx context.Context, repo Repository, branch, commit string) error
	// PutFile writes one file through the simple content endpoint. It is
	// the only primitive able to create the first commit of a repository.
	PutFile(ctx context.Context, repo Repository, branch, path, message string, content []byte) (BaseCommit, error)
	Repository(ctx context.Context, repo Repository) (RepositoryInfo, error)
}

// Provider opens an ObjectGraph authenticated with a credential.
type Provider interface {
	Graph(token Secret) ObjectGraph
}
