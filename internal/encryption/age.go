package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
	"filippo.io/age/armor"

	"artsync/internal/artsync"
	"artsync/internal/config"
)

// AgeSealer implements artsync.Sealer using filippo.io/age with an X25519
// identity kept in a local key file. Sealed tokens are ASCII-armored so they
// can be stored in a text column.
type AgeSealer struct {
	identityPath string

	mu       sync.Mutex
	identity *age.X25519Identity
}

var _ artsync.Sealer = (*AgeSealer)(nil)

// NewAgeSealer creates a new AgeSealer from configuration.
func NewAgeSealer(cfg config.EncryptionConfig) *AgeSealer {
	return &AgeSealer{identityPath: cfg.IdentityPath}
}

// Setup generates a new X25519 identity and writes it to the key file.
// It refuses to replace an existing key: tokens sealed with it would
// become unreadable.
func (s *AgeSealer) Setup() error {
	if s.IsConfigured() {
		return fmt.Errorf("key file already exists at %s", s.identityPath)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.identityPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	f, err := os.OpenFile(s.identityPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating key file: %w", err)
	}
	defer f.Close()

	content := fmt.Sprintf("# public key: %s\n%s\n", identity.Recipient(), identity)
	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	return nil
}

// Seal encrypts token to the sealer's own recipient.
func (s *AgeSealer) Seal(token artsync.Secret) (string, error) {
	identity, err := s.loadIdentity()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, token.Reveal()); err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return "", fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.String(), nil
}

// Open decrypts a value produced by Seal.
func (s *AgeSealer) Open(sealed string) (artsync.Secret, error) {
	identity, err := s.loadIdentity()
	if err != nil {
		return "", err
	}

	r, err := age.Decrypt(armor.NewReader(strings.NewReader(sealed)), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted token: %w", err)
	}
	return artsync.Secret(plain), nil
}

// IsConfigured returns true if the key file exists.
func (s *AgeSealer) IsConfigured() bool {
	_, err := os.Stat(s.identityPath)
	return err == nil
}

// loadIdentity reads the key file once and caches the identity.
func (s *AgeSealer) loadIdentity() (*age.X25519Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		return s.identity, nil
	}

	data, err := os.ReadFile(s.identityPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no key at %s: run 'artsync keys init'", s.identityPath)
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			s.identity = x
			return x, nil
		}
	}
	return nil, fmt.Errorf("no X25519 identity in %s", s.identityPath)
}
