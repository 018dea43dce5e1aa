package artsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Options tunes a SyncService.
type Options struct {
	// BlobConcurrency bounds parallel blob uploads. Values below 1 mean 1.
	BlobConcurrency int

	// SkipUnchanged skips the commit when the new tree equals the base tree.
	SkipUnchanged bool

	// AuthorName and AuthorEmail set the commit author. When empty the
	// provider attributes the commit to the token's owner.
	AuthorName  string
	AuthorEmail string
}

// Result summarizes a sync run.
type Result struct {
	FilesUpdated int
	CommitHash   string
	Counts       map[Kind]int
	// NoOp is set when the scope had no records; nothing was written.
	NoOp bool
	// Unchanged is set when SkipUnchanged found nothing new to commit.
	Unchanged bool
}

// SyncService is the orchestration layer that publishes a scope's records
// to its configured repository as a single commit.
type SyncService struct {
	records  RecordStore
	settings SettingsStore
	resolver *EndpointResolver
	provider Provider
	logger   Logger
	clock    Clock
	opts     Options
}

// NewSyncService creates a new SyncService with the provided dependencies.
func NewSyncService(records RecordStore, settings SettingsStore, resolver *EndpointResolver, provider Provider, logger Logger, clock Clock, opts Options) *SyncService {
	if opts.BlobConcurrency < 1 {
		opts.BlobConcurrency = 1
	}
	return &SyncService{
		records:  records,
		settings: settings,
		resolver: resolver,
		provider: provider,
		logger:   logger,
		clock:    clock,
		opts:     opts,
	}
}

// run carries the state of one sync through its steps.
type run struct {
	ep    *Endpoint
	graph ObjectGraph
	scope Scope
}

func (r *run) logArgs(step string, args ...any) []any {
	return append([]any{"repository", r.ep.Repository.String(), "branch", r.ep.Branch, "step", step}, args...)
}

// Sync publishes every record owned by scope.
//
// The branch ref is read once and written once. Objects created before a
// failure are unreferenced and invisible, so any error leaves the branch
// exactly as it was. Once the ref has moved the sync has succeeded, even if
// recording the last-synced time fails.
func (s *SyncService) Sync(ctx context.Context, scope Scope) (*Result, error) {
	ep, err := s.resolver.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}

	records, err := s.loadRecords(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.logger.Info("no artefacts to sync", "scope", scope.String())
		return &Result{NoOp: true, Counts: map[Kind]int{}}, nil
	}

	files, err := SerializeBatch(records, ep.Folder, s.logger)
	if err != nil {
		return nil, err
	}

	r := &run{ep: ep, graph: s.provider.Graph(ep.Token), scope: scope}

	base, head, err := s.resolveBase(ctx, r)
	if err != nil {
		return nil, err
	}

	entries, err := s.createBlobs(ctx, r, files)
	if err != nil {
		return nil, err
	}

	tree, err := r.graph.CreateTree(ctx, ep.Repository, base.TreeHash, entries)
	if err != nil {
		return nil, s.stepFailed(r, "create tree", err)
	}

	counts := countKinds(files)
	result := &Result{FilesUpdated: len(files), Counts: counts}

	if s.opts.SkipUnchanged && base.TreeHash != "" && tree == base.TreeHash {
		s.logger.Info("tree unchanged, skipping commit", r.logArgs("create commit", "tree", tree)...)
		result.CommitHash = base.Hash
		result.Unchanged = true
		s.markSynced(ctx, r)
		return result, nil
	}

	commit, err := r.graph.CreateCommit(ctx, ep.Repository, CommitRequest{
		Message: commitMessage(counts, scope),
		Tree:    tree,
		Parent:  base.Hash,
		Author:  s.author(),
	})
	if err != nil {
		return nil, s.stepFailed(r, "create commit", err)
	}

	if err := s.publish(ctx, r, head, commit); err != nil {
		return nil, err
	}

	s.logger.Info("sync published", r.logArgs("update ref", "commit", commit, "files", len(files))...)
	result.CommitHash = commit
	s.markSynced(ctx, r)
	return result, nil
}

func (s *SyncService) loadRecords(ctx context.Context, scope Scope) ([]Record, error) {
	owner := scope.Owner()
	var all []Record
	for _, kind := range Kinds {
		recs, err := s.records.ListRecords(ctx, owner, kind)
		if err != nil {
			return nil, fmt.Errorf("listing %s records: %w", kind, err)
		}
		all = append(all, recs...)
	}
	return all, nil
}

// resolveBase reads the branch head and returns the commit the sync builds
// on, bootstrapping empty repositories first. A zero BaseCommit means the
// branch is missing and the sync commit starts a new history.
func (s *SyncService) resolveBase(ctx context.Context, r *run) (BaseCommit, BranchHead, error) {
	head, err := r.graph.ResolveBranchHead(ctx, r.ep.Repository, r.ep.Branch)
	if err != nil {
		return BaseCommit{}, head, s.stepFailed(r, "resolve branch", err)
	}

	switch head.State {
	case HeadResolved:
		tree, err := r.graph.CommitTree(ctx, r.ep.Repository, head.Commit)
		if err != nil {
			return BaseCommit{}, head, s.stepFailed(r, "read base commit", err)
		}
		return BaseCommit{Hash: head.Commit, TreeHash: tree}, head, nil

	case HeadEmptyRepository:
		s.logger.Info("repository is empty, bootstrapping", r.logArgs("bootstrap")...)
		base, err := Bootstrap(ctx, r.graph, r.ep)
		if err != nil {
			return BaseCommit{}, head, s.stepFailed(r, "bootstrap", err)
		}
		// The seed commit is now the branch head the sync must advance.
		return base, BranchHead{State: HeadResolved, Commit: base.Hash}, nil

	case HeadMissing:
		s.logger.Info("branch does not exist, starting new history", r.logArgs("resolve branch")...)
		return BaseCommit{}, head, nil

	default:
		return BaseCommit{}, head, fmt.Errorf("unexpected branch state %v", head.State)
	}
}

// createBlobs uploads every file concurrently. Blobs are content addressed,
// so upload order does not matter; tree entries keep the file order.
func (s *SyncService) createBlobs(ctx context.Context, r *run, files []File) ([]TreeEntry, error) {
	entries := make([]TreeEntry, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.BlobConcurrency)
	for i, f := range files {
		g.Go(func() error {
			hash, err := r.graph.CreateBlob(gctx, r.ep.Repository, f.Content)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			entries[i] = TreeEntry{Path: f.Path, BlobHash: hash}
			s.logger.Debug("blob created", "path", f.Path, "blob", hash)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.stepFailed(r, "create blobs", err)
	}
	return entries, nil
}

// publish moves the branch to commit. This is the only visible side effect
// of a sync.
func (s *SyncService) publish(ctx context.Context, r *run, head BranchHead, commit string) error {
	var err error
	if head.State == HeadMissing {
		err = r.graph.CreateBranchRef(ctx, r.ep.Repository, r.ep.Branch, commit)
	} else {
		err = r.graph.UpdateBranchRef(ctx, r.ep.Repository, r.ep.Branch, commit)
	}
	if err != nil {
		return s.stepFailed(r, "update ref", err)
	}
	return nil
}

// markSynced stamps the last-synced time once the branch has moved. The
// publish already happened, so a failure here is logged and not returned.
func (s *SyncService) markSynced(ctx context.Context, r *run) {
	if err := s.settings.MarkSynced(ctx, r.scope.Owner(), s.clock.Now()); err != nil {
		s.logger.Error("recording sync time failed", r.logArgs("mark synced", "error", err)...)
	}
}

func (s *SyncService) author() *Signature {
	if s.opts.AuthorName == "" || s.opts.AuthorEmail == "" {
		return nil
	}
	return &Signature{Name: s.opts.AuthorName, Email: s.opts.AuthorEmail, When: s.clock.Now()}
}

// stepFailed logs a failed step and classifies the error. Conflicts keep
// their identity; a rejected credential becomes a configuration error.
func (s *SyncService) stepFailed(r *run, step string, err error) error {
	s.logger.Error("sync step failed", r.logArgs(step, "error", err)...)
	switch {
	case errors.Is(err, ErrConflict):
		return &UpstreamError{Step: step, Err: err}
	case errors.Is(err, ErrUnauthorized):
		return &ConfigError{Msg: "access token was rejected by the provider: update it in settings", Err: err}
	case errors.Is(err, ErrRepositoryNotFound):
		return &ConfigError{Msg: fmt.Sprintf("repository %s not found or not accessible", r.ep.Repository), Err: err}
	}
	return &UpstreamError{Step: step, Err: err}
}

func countKinds(files []File) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, f := range files {
		counts[f.Kind]++
	}
	return counts
}

func commitMessage(counts map[Kind]int, scope Scope) string {
	parts := make([]string, len(Kinds))
	for i, k := range Kinds {
		parts[i] = fmt.Sprintf("%d %s(s)", counts[k], k)
	}
	return fmt.Sprintf("Sync %s\n\nTriggered by %s\n", strings.Join(parts, ", "), scope)
}
