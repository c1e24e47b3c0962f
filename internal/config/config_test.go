package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("got server %q, want default", cfg.ServerURL)
	}
	if cfg.DataDir != dir {
		t.Errorf("got data dir %q, want %q", cfg.DataDir, dir)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := &Config{ServerURL: "https://staging.nomadway.app", DataDir: filepath.Join(dir, "data")}
	if err := Save(dir, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.ServerURL != in.ServerURL || out.DataDir != in.DataDir {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	dir := t.TempDir()
	if err := Save(dir, &Config{ServerURL: "https://from-file.example"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv(envServerURL, "https://from-env.example")
	t.Setenv(envDataDir, "/tmp/override")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "https://from-env.example" {
		t.Errorf("env server override ignored: %q", cfg.ServerURL)
	}
	if cfg.DataDir != "/tmp/override" {
		t.Errorf("env data dir override ignored: %q", cfg.DataDir)
	}
}
