package artsync

// Sealer encrypts access tokens before they are stored and decrypts them
// when a sync needs them. Sealed values are opaque text safe to persist.
type Sealer interface {
	// Setup performs one-time key generation.
	Setup() error

	// Seal encrypts a token for storage.
	Seal(token Secret) (string, error)

	// Open decrypts a stored token.
	Open(sealed string) (Secret, error)

	// IsConfigured returns true if the sealing key exists.
	IsConfigured() bool
}
