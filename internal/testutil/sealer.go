package testutil

import (
	"testing"

	"artsync/internal/artsync"
	"artsync/internal/encryption"
)

// NewTestSealer creates a reversible sealer for testing.
func NewTestSealer() artsync.Sealer {
	return encryption.NewTestSealer()
}

// SealToken seals token with sealer, failing the test on error.
func SealToken(t *testing.T, sealer artsync.Sealer, token string) string {
	t.Helper()
	sealed, err := sealer.Seal(artsync.Secret(token))
	if err != nil {
		t.Fatalf("sealing token: %v", err)
	}
	return sealed
}
