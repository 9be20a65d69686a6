package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TEXGEST_API_KEY", "WORKER_COUNT", "INCLUDE_MAX_DEPTH", "LINE_WIDTH_MM"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8090" || cfg.WorkerCount != 4 || cfg.IncludeMaxDepth != 4 || cfg.LineWidthMM != 150 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate to require an API key")
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texgest.yaml")
	yml := "port: \"9000\"\nworker_count: 2\njob_ttl: 30m\nmath_strict_braces: true\nline_width_mm: 120\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "")
	t.Setenv("LINE_WIDTH_MM", "")
	t.Setenv("MATH_NON_BREAKING_SPACES", "")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("TEXGEST_API_KEY", "secret")
	t.Setenv("MATH_STRICT_DELIMITERS", "true")
	t.Setenv("INCLUDE_MAX_DEPTH", "-1")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want file value", cfg.Port)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want env value 8", cfg.WorkerCount)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("JobTTL = %v", cfg.JobTTL)
	}
	if cfg.IncludeMaxDepth != 4 {
		t.Errorf("IncludeMaxDepth = %d, want default for invalid value", cfg.IncludeMaxDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	opts := cfg.BuildOptions()
	if !opts.Math.StrictBraces || !opts.Math.StrictDelimiters || opts.Math.NonBreakingSpaces {
		t.Errorf("math options = %+v", opts.Math)
	}
	if opts.LineWidthMM != 120 {
		t.Errorf("LineWidthMM = %v", opts.LineWidthMM)
	}
	if d := cfg.DocumentOptions(); d.MaxIncludeDepth != 4 {
		t.Errorf("MaxIncludeDepth = %d", d.MaxIncludeDepth)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("worker_count: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
