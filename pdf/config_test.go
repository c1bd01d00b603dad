package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("page_size: Letter\ntheme: boring\nmin_column_width: 15\nconfidential: INTERNAL\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.PageSize != "Letter" || cfg.Theme != "boring" || cfg.MinColumnWidth != 15 || cfg.Confidential != "INTERNAL" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	merged := DefaultConfig().Merge(cfg)
	if merged.FontFamily != "Helvetica" || merged.PageSize != "Letter" || merged.RowHeight != 8 {
		t.Fatalf("unexpected merge: %+v", merged)
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("page_size: A4\npaper_colour: beige\n"))
	if !errors.Is(err, ErrConfigParse) {
		t.Fatalf("expected ErrConfigParse, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinpdf.yaml")
	if err := os.WriteFile(path, []byte("title: Ward Report\nvalidate: true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Title != "Ward Report" || !cfg.Validate {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"non-core font without files", Config{FontFamily: "DejaVuSans"}},
		{"regular font without bold", Config{RegularFont: "/fonts/a.ttf"}},
		{"gif logo", Config{LogoPath: "logo.gif"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := DefaultConfig().Merge(tc.cfg).validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
	if err := DefaultConfig().validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestImageTypeForPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/logo.png":  "PNG",
		"/tmp/logo.JPG":  "JPG",
		"/tmp/logo.jpeg": "JPG",
		"/tmp/logo.gif":  "",
	}
	for path, want := range cases {
		if got := imageTypeForPath(path); got != want {
			t.Fatalf("imageTypeForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
