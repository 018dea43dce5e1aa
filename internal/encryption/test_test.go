package encryption

import (
	"strings"
	"testing"

	"artsync/internal/artsync"
	"artsync/internal/config"
)

func TestTestSealer(t *testing.T) {
	t.Parallel()
	s := NewTestSealer()

	if err := s.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !s.setupCalled {
		t.Error("Setup() did not record that it was called")
	}
	if !s.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	sealed, err := s.Seal("ghp_secret")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if strings.Contains(sealed, "ghp_secret") {
		t.Error("sealed value contains the plaintext token")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got != artsync.Secret("ghp_secret") {
		t.Error("Open() returned the wrong token")
	}

	if _, err := s.Open("ghp_secret"); err == nil {
		t.Error("Open() of an unsealed value expected error")
	}
}

func TestNewSealerFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "age", cfg: config.EncryptionConfig{Type: "age", IdentityPath: "/tmp/k"}, want: "*encryption.AgeSealer"},
		{name: "default is age", cfg: config.EncryptionConfig{IdentityPath: "/tmp/k"}, want: "*encryption.AgeSealer"},
		{name: "age without key path", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, want: "*encryption.TestSealer"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSealerFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSealerFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var name string
			switch got.(type) {
			case *AgeSealer:
				name = "*encryption.AgeSealer"
			case *TestSealer:
				name = "*encryption.TestSealer"
			}
			if name != tt.want {
				t.Errorf("NewSealerFromConfig() = %T, want %s", got, tt.want)
			}
		})
	}
}
