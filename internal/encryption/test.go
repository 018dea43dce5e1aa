package encryption

import (
	"encoding/base64"
	"fmt"
	"strings"

	"artsync/internal/artsync"
)

const testPrefix = "test:"

// TestSealer is a deterministic, reversible sealer for tests. Its output
// differs from the plaintext but provides no secrecy.
type TestSealer struct {
	setupCalled bool
}

var _ artsync.Sealer = (*TestSealer)(nil)

// NewTestSealer creates a new TestSealer.
func NewTestSealer() *TestSealer {
	return &TestSealer{}
}

func (s *TestSealer) Setup() error {
	s.setupCalled = true
	return nil
}

func (s *TestSealer) Seal(token artsync.Secret) (string, error) {
	return testPrefix + base64.StdEncoding.EncodeToString([]byte(token.Reveal())), nil
}

func (s *TestSealer) Open(sealed string) (artsync.Secret, error) {
	encoded, ok := strings.CutPrefix(sealed, testPrefix)
	if !ok {
		return "", fmt.Errorf("invalid test seal")
	}
	plain, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding test seal: %w", err)
	}
	return artsync.Secret(plain), nil
}

func (s *TestSealer) IsConfigured() bool {
	return true
}
