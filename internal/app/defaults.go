package app

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
)

// GetDefaults returns application default paths and the local principal,
// checking environment variables first.
// Environment variables:
//   - ARTSYNC_CONFIG_PATH: config file location (default: ~/.config/artsync.toml)
//   - ARTSYNC_HOME: base directory for artsync data (default: ~/.local/share/artsync)
//   - ARTSYNC_USER: principal the CLI acts as (default: the OS user name)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"principal":   getPrincipal(),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("ARTSYNC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "artsync.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("ARTSYNC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "artsync"), nil
}

// getPrincipal returns "" when no user can be determined; commands that
// need a principal then require the --as flag.
func getPrincipal() string {
	if id := os.Getenv("ARTSYNC_USER"); id != "" {
		return id
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
