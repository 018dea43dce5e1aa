package testutil

import (
	"testing"

	"artsync/internal/artsync"
	"artsync/internal/gitgraph"
	"artsync/internal/gitgraph/gitgraphtest"
)

// TestToken is the credential the fake provider accepts.
const TestToken = "ghp_testtoken0123456789"

// NewFakeProvider starts a fake hosting provider that accepts TestToken and
// returns it along with a Provider talking to it over HTTP.
func NewFakeProvider(t *testing.T) (*gitgraphtest.Server, artsync.Provider) {
	t.Helper()
	srv := gitgraphtest.NewServer(t, TestToken)
	provider, err := gitgraph.NewProvider(srv.URL(), srv.Client())
	if err != nil {
		t.Fatalf("creating provider: %v", err)
	}
	return srv, provider
}
