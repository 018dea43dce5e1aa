package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for artsync.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Provider   ProviderConfig   `toml:"provider"`
	Sync       SyncConfig       `toml:"sync"`
	Server     ServerConfig     `toml:"server"`
}

// DatabaseConfig represents configuration for the record and settings database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig holds the key used to seal stored access tokens.
type EncryptionConfig struct {
	Type         string `toml:"type"` // "age" (default) or "test"
	IdentityPath string `toml:"identity_path"`
}

// ProviderConfig represents configuration for the git hosting provider.
type ProviderConfig struct {
	Type           string `toml:"type"`              // "github" (default)
	APIURL         string `toml:"api_url,omitempty"` // defaults to the public API
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SyncConfig tunes sync runs.
type SyncConfig struct {
	BlobConcurrency int    `toml:"blob_concurrency"`
	SkipUnchanged   bool   `toml:"skip_unchanged"`
	AuthorName      string `toml:"author_name,omitempty"`
	AuthorEmail     string `toml:"author_email,omitempty"`
}

// ServerConfig configures the HTTP trigger endpoint.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// PrincipalHeader carries the user ID resolved by the session layer
	// in front of this server.
	PrincipalHeader string `toml:"principal_header"`
}

// NewConfig creates a new Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: filepath.Join(baseDir, "keys", "artsync.key"),
		},
		Provider: ProviderConfig{
			Type:           "github",
			TimeoutSeconds: 30,
		},
		Sync: SyncConfig{
			BlobConcurrency: 4,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			PrincipalHeader: "X-Principal-ID",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
