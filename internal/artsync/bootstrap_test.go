package artsync_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"artsync/internal/artsync"
	"artsync/internal/gitgraph/gitgraphtest"
	"artsync/internal/testutil"
)

// emptyGraph answers PutFile with a fixed result; every other call panics.
type emptyGraph struct {
	artsync.ObjectGraph
	base artsync.BaseCommit
}

func (g *emptyGraph) PutFile(context.Context, artsync.Repository, string, string, string, []byte) (artsync.BaseCommit, error) {
	return g.base, nil
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	ep := &artsync.Endpoint{
		Token:      artsync.Secret(testutil.TestToken),
		Repository: artsync.Repository{Owner: "acme", Name: "library"},
		Branch:     "main",
		Folder:     "library",
	}

	t.Run("seeds an empty repository", func(t *testing.T) {
		server, provider := testutil.NewFakeProvider(t)
		repo := server.CreateRepo("acme", "library")

		base, err := artsync.Bootstrap(ctx, provider.Graph(ep.Token), ep)
		if err != nil {
			t.Fatalf("Bootstrap() error = %v", err)
		}
		if base.Hash == "" || base.Hash != repo.Head("main") {
			t.Errorf("base commit = %q, branch head = %q", base.Hash, repo.Head("main"))
		}
		if base.TreeHash == "" {
			t.Error("base tree hash is empty")
		}

		files := repo.Files("main")
		readme, ok := files[artsync.SeedPath]
		if !ok || len(files) != 1 {
			t.Fatalf("files = %v, want only %s", files, artsync.SeedPath)
		}
		if !strings.Contains(readme, "`library/`") {
			t.Errorf("readme does not name the folder:\n%s", readme)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		server, provider := testutil.NewFakeProvider(t)
		server.CreateRepo("acme", "library")
		server.Fail(gitgraphtest.OpPutContents, http.StatusInternalServerError)

		if _, err := artsync.Bootstrap(ctx, provider.Graph(ep.Token), ep); err == nil {
			t.Fatal("Bootstrap() error = nil, want an error")
		}
	})

	t.Run("incomplete response", func(t *testing.T) {
		graph := &emptyGraph{base: artsync.BaseCommit{Hash: "abc123"}}

		if _, err := artsync.Bootstrap(ctx, graph, ep); err == nil {
			t.Fatal("Bootstrap() error = nil, want an error for a missing tree hash")
		}
	})
}
