package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Index.Threshold != 0.3 || cfg.Index.TopK != 3 {
		t.Fatalf("unexpected ranking defaults: %+v", cfg.Index)
	}
}

func TestLoadFile_OverlaysDefaultsAndExpandsEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DOCSEEK_TEST_INDEX", "/data/embeddings.json")

	p := filepath.Join(home, "docseek.yaml")
	body := "index:\n  path: ${DOCSEEK_TEST_INDEX}\n  top_k: 5\nrepository:\n  timeout: 10s\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Index.Path != "/data/embeddings.json" {
		t.Fatalf("env not expanded: %q", cfg.Index.Path)
	}
	if cfg.Index.TopK != 5 {
		t.Fatalf("top_k not applied: %d", cfg.Index.TopK)
	}
	if cfg.Index.Threshold != 0.3 {
		t.Fatalf("default threshold lost: %v", cfg.Index.Threshold)
	}
	if time.Duration(cfg.Repository.Timeout) != 10*time.Second {
		t.Fatalf("timeout not parsed: %v", cfg.Repository.Timeout)
	}
}

func TestLoadFile_RejectsUnknownFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "docseek.yaml")
	if err := os.WriteFile(p, []byte("index:\n  treshold: 0.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFile_ValidatesRanges(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "docseek.yaml")
	if err := os.WriteFile(p, []byte("index:\n  threshold: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(p)
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "threshold") {
		t.Fatalf("expected threshold validation error, got %v", err)
	}
}

func TestLoadFile_RejectsUnknownResolver(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "docseek.yaml")
	if err := os.WriteFile(p, []byte("resolver:\n  kind: oracle\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected resolver kind validation error")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := LoadOrDefault(filepath.Join(home, "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Repository.BaseURL == "" {
		t.Fatal("expected defaults")
	}
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Index.TopK = 7
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Index.TopK != 7 || got.Repository.Timeout != cfg.Repository.Timeout {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadFile_ResolverMargin(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "docseek.yaml")

	if err := os.WriteFile(p, []byte("resolver:\n  margin: 0.1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Resolver.Margin != 0.1 {
		t.Errorf("margin = %v, want 0.1", cfg.Resolver.Margin)
	}

	if err := os.WriteFile(p, []byte("resolver:\n  margin: -0.2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil || !strings.Contains(strings.ToLower(err.Error()), "margin") {
		t.Fatalf("expected margin validation error, got %v", err)
	}
}

func TestDefaultConfig_ResolverMargin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Resolver.Margin <= 0 {
		t.Fatalf("default margin = %v, want > 0", cfg.Resolver.Margin)
	}
}
