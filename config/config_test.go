package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != "6835" {
		t.Errorf("expected default port 6835, got %s", cfg.Port)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("expected sqlite driver, got %s", cfg.DatabaseDriver)
	}
	if cfg.PaginateBy != 5 {
		t.Errorf("expected 5 items per page, got %d", cfg.PaginateBy)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: \"9000\"\npaginate_by: 10\ndatabase:\n  driver: postgres\n  dsn: postgres://localhost/suorganizer\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SUORGANIZER_PORT", "9100")
	t.Setenv("SUORGANIZER_PUBLIC_URL", "https://example.com/")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env overrides file", cfg.Port, "9100"},
		{"file value", cfg.PaginateBy, 10},
		{"nested key", cfg.DatabaseDriver, "postgres"},
		{"nested dsn", cfg.DatabaseDSN, "postgres://localhost/suorganizer"},
		{"trailing slash trimmed", cfg.PublicURL, "https://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SUORGANIZER_DATABASE_DRIVER", "oracle")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
