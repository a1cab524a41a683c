package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxConcurrent != 5 {
		t.Fatalf("max concurrent = %d, want 5", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.EndPage != 0 {
		t.Fatal("end page must default to auto-detect")
	}
	if cfg.DBHost != "" {
		t.Fatal("postgres mirror must default to disabled")
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	yaml := `
base_url: https://example.test
max_concurrent: 8
request_timeout: 45s
csv_path: out/test.csv
db_host: localhost
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.BaseURL != "https://example.test" {
		t.Fatalf("base url = %q", cfg.BaseURL)
	}
	if cfg.MaxConcurrent != 8 {
		t.Fatalf("max concurrent = %d", cfg.MaxConcurrent)
	}
	if cfg.RequestTimeout.Std() != 45*time.Second {
		t.Fatalf("request timeout = %v", cfg.RequestTimeout)
	}
	// Settings the file does not name keep their defaults.
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want default 3", cfg.MaxRetries)
	}
	if cfg.IndexPath != "filtirli-axtaris" {
		t.Fatalf("index path = %q", cfg.IndexPath)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("max_concurrent: [not an int"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("malformed yaml must error")
	}
}
