package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pkt.systems/clinpdf/pdf"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.yaml")
	if err := os.WriteFile(path, []byte("title: Ward 7\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadConfig(options{configPath: path, themeName: "teal", validate: true})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Title != "Ward 7" || cfg.Theme != "teal" || !cfg.Validate {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigRejectsUnknownTheme(t *testing.T) {
	if _, err := loadConfig(options{themeName: "neon"}); !errors.Is(err, pdf.ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestRunBadFlags(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"--no-such-flag"}, &stderr); code != 2 {
		t.Fatalf("exit %d, want 2", code)
	}
	if code := run([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}, &stderr); code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
}
