// Package config resolves the client configuration: where the server
// lives and where device-local state is kept.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configFile = "config.json"
	appDirName = "nomadway"

	// DefaultServerURL is the production API endpoint. Override with the
	// serverUrl config key or NOMADWAY_SERVER_URL.
	DefaultServerURL = "https://api.nomadway.app"

	envServerURL = "NOMADWAY_SERVER_URL"
	envDataDir   = "NOMADWAY_DATA_DIR"
)

// Config is the persisted client configuration.
type Config struct {
	ServerURL string `json:"serverUrl,omitempty"`
	DataDir   string `json:"dataDir,omitempty"`
}

// DefaultDir returns the per-user config directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Load reads the config from dir, applying defaults for absent fields and
// environment overrides on top. A missing config file is not an error.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dir
	}

	if v := os.Getenv(envServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}

	return cfg, nil
}

// Save writes the config to dir using atomic write (temp file + rename).
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filepath.Join(dir, configFile))
}
