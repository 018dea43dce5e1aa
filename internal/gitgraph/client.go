// Package gitgraph implements artsync.ObjectGraph against the GitHub REST
// git data API using go-github. Each method issues exactly one request;
// retry policy belongs to callers.
package gitgraph

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v48/github"
	"golang.org/x/oauth2"

	"artsync/internal/artsync"
)

// DefaultAPIURL is the public GitHub API endpoint.
const DefaultAPIURL = "https://api.github.com/"

const (
	userAgent   = "artsync"
	regularFile = "100644"
)

// Client is an ObjectGraph bound to one access token.
type Client struct {
	gh *github.Client
}

var _ artsync.ObjectGraph = (*Client)(nil)

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, token artsync.Secret, httpClient *http.Client) (*Client, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return newClient(u, token, httpClient), nil
}

func newClient(base *url.URL, token artsync.Secret, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	authed := httpClient
	if token.Reveal() != "" {
		authed = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Reveal()}),
				Base:   httpClient.Transport,
			},
			Timeout: httpClient.Timeout,
		}
	}

	gh := github.NewClient(authed)
	gh.BaseURL = base
	gh.UserAgent = userAgent
	return &Client{gh: gh}
}

// parseBaseURL defaults an empty URL and adds the trailing slash go-github
// requires.
func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = DefaultAPIURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing API URL %q: %w", raw, err)
	}
	return u, nil
}

// ResolveBranchHead reads refs/heads/<branch>. A 404 means the branch does
// not exist; a 409 means the repository has no commits.
func (c *Client) ResolveBranchHead(ctx context.Context, repo artsync.Repository, branch string) (artsync.BranchHead, error) {
	ref, _, err := c.gh.Git.GetRef(ctx, repo.Owner, repo.Name, "heads/"+branch)
	if err != nil {
		err = wrapError(err)
		switch statusOf(err) {
		case http.StatusNotFound:
			return artsync.BranchHead{State: artsync.HeadMissing}, nil
		case http.StatusConflict:
			return artsync.BranchHead{State: artsync.HeadEmptyRepository}, nil
		}
		return artsync.BranchHead{}, err
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return artsync.BranchHead{}, fmt.Errorf("ref %s has no object", ref.GetRef())
	}
	return artsync.BranchHead{State: artsync.HeadResolved, Commit: sha}, nil
}

// CommitTree returns the tree hash of a commit.
func (c *Client) CommitTree(ctx context.Context, repo artsync.Repository, commit string) (string, error) {
	got, _, err := c.gh.Git.GetCommit(ctx, repo.Owner, repo.Name, commit)
	if err != nil {
		return "", wrapError(err)
	}
	tree := got.GetTree().GetSHA()
	if tree == "" {
		return "", fmt.Errorf("commit %s has no tree", commit)
	}
	return tree, nil
}

func hashOf(what, sha string) (string, error) {
	if sha == "" {
		return "", fmt.Errorf("%s response has no sha", what)
	}
	return sha, nil
}

// CreateBlob uploads content as a blob. Content is sent base64 encoded so
// the stored bytes match exactly.
func (c *Client) CreateBlob(ctx context.Context, repo artsync.Repository, content []byte) (string, error) {
	blob, _, err := c.gh.Git.CreateBlob(ctx, repo.Owner, repo.Name, &github.Blob{
		Content:  github.String(base64.StdEncoding.EncodeToString(content)),
		Encoding: github.String("base64"),
	})
	if err != nil {
		return "", wrapError(err)
	}
	return hashOf("blob", blob.GetSHA())
}

// CreateTree creates a tree of regular files layered over baseTree. An
// empty baseTree starts from an empty tree.
func (c *Client) CreateTree(ctx context.Context, repo artsync.Repository, baseTree string, entries []artsync.TreeEntry) (string, error) {
	ghEntries := make([]*github.TreeEntry, len(entries))
	for i, e := range entries {
		ghEntries[i] = &github.TreeEntry{
			Path: github.String(e.Path),
			Mode: github.String(regularFile),
			Type: github.String("blob"),
			SHA:  github.String(e.BlobHash),
		}
	}
	tree, _, err := c.gh.Git.CreateTree(ctx, repo.Owner, repo.Name, baseTree, ghEntries)
	if err != nil {
		return "", wrapError(err)
	}
	return hashOf("tree", tree.GetSHA())
}

// CreateCommit creates a commit object. An empty Parent creates a root commit.
func (c *Client) CreateCommit(ctx context.Context, repo artsync.Repository, req artsync.CommitRequest) (string, error) {
	commit := &github.Commit{
		Message: github.String(req.Message),
		Tree:    &github.Tree{SHA: github.String(req.Tree)},
	}
	if req.Parent != "" {
		commit.Parents = []*github.Commit{{SHA: github.String(req.Parent)}}
	}
	if a := req.Author; a != nil {
		commit.Author = &github.CommitAuthor{Name: github.String(a.Name), Email: github.String(a.Email)}
		if !a.When.IsZero() {
			when := a.When.UTC()
			commit.Author.Date = &when
		}
	}

	created, _, err := c.gh.Git.CreateCommit(ctx, repo.Owner, repo.Name, commit)
	if err != nil {
		return "", wrapError(err)
	}
	return hashOf("commit", created.GetSHA())
}

func branchRef(branch, commit string) *github.Reference {
	return &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(commit)},
	}
}

// UpdateBranchRef fast-forwards a branch. The provider refuses non
// fast-forward updates, which is how a concurrent sync is detected.
func (c *Client) UpdateBranchRef(ctx context.Context, repo artsync.Repository, branch, commit string) error {
	_, _, err := c.gh.Git.UpdateRef(ctx, repo.Owner, repo.Name, branchRef(branch, commit), false)
	if err == nil {
		return nil
	}
	err = wrapError(err)
	switch statusOf(err) {
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return fmt.Errorf("updating %s: %w: %w", branch, artsync.ErrConflict, err)
	}
	return err
}

// CreateBranchRef creates refs/heads/<branch>.
func (c *Client) CreateBranchRef(ctx context.Context, repo artsync.Repository, branch, commit string) error {
	_, _, err := c.gh.Git.CreateRef(ctx, repo.Owner, repo.Name, branchRef(branch, commit))
	if err == nil {
		return nil
	}
	err = wrapError(err)
	if statusOf(err) == http.StatusUnprocessableEntity {
		return fmt.Errorf("creating %s: %w: %w", branch, artsync.ErrConflict, err)
	}
	return err
}

// PutFile creates a file through the contents endpoint, producing one commit.
func (c *Client) PutFile(ctx context.Context, repo artsync.Repository, branch, path, message string, content []byte) (artsync.BaseCommit, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}
	resp, _, err := c.gh.Repositories.CreateFile(ctx, repo.Owner, repo.Name, path, opts)
	if err != nil {
		return artsync.BaseCommit{}, wrapError(err)
	}
	return artsync.BaseCommit{Hash: resp.Commit.GetSHA(), TreeHash: resp.Commit.GetTree().GetSHA()}, nil
}

// Repository reads repository metadata.
func (c *Client) Repository(ctx context.Context, repo artsync.Repository) (artsync.RepositoryInfo, error) {
	got, _, err := c.gh.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return artsync.RepositoryInfo{}, wrapError(err)
	}
	info := artsync.RepositoryInfo{FullName: got.GetFullName(), DefaultBranch: got.GetDefaultBranch()}
	if push, ok := got.Permissions["push"]; ok {
		info.CanPush = &push
	}
	return info, nil
}
