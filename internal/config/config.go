package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/texgest/internal/builder"
	"github.com/dgallion1/texgest/internal/document"
	"github.com/dgallion1/texgest/internal/include"
	"github.com/dgallion1/texgest/internal/mathasm"
)

// Config is loaded from defaults, then an optional YAML file named by
// TEXGEST_CONFIG, then environment variables.
type Config struct {
	Port string `yaml:"port,omitempty"`

	// Auth
	APIKey string `yaml:"api_key,omitempty"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count,omitempty"`
	MaxQueueSize int `yaml:"max_queue_size,omitempty"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes,omitempty"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl,omitempty"`

	// Math rendering
	MathStrictBraces      bool `yaml:"math_strict_braces,omitempty"`
	MathNonBreakingSpaces bool `yaml:"math_non_breaking_spaces,omitempty"`
	MathStrictDelimiters  bool `yaml:"math_strict_delimiters,omitempty"`

	// Sources
	IncludeMaxDepth int     `yaml:"include_max_depth,omitempty"`
	LineWidthMM     float64 `yaml:"line_width_mm,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:            "8090",
		WorkerCount:     4,
		MaxQueueSize:    100,
		MaxUploadBytes:  10 << 20,
		JobTTL:          time.Hour,
		IncludeMaxDepth: include.DefaultMaxDepth,
		LineWidthMM:     150,
	}
}

// Load reads the file named by TEXGEST_CONFIG, if any, and the environment.
func Load() (Config, error) {
	return LoadFile(os.Getenv("TEXGEST_CONFIG"))
}

// LoadFile overlays the YAML file at path (skipped when empty) and then the
// environment on the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("TEXGEST_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.MathStrictBraces = envBool("MATH_STRICT_BRACES", cfg.MathStrictBraces)
	cfg.MathNonBreakingSpaces = envBool("MATH_NON_BREAKING_SPACES", cfg.MathNonBreakingSpaces)
	cfg.MathStrictDelimiters = envBool("MATH_STRICT_DELIMITERS", cfg.MathStrictDelimiters)
	cfg.IncludeMaxDepth = envInt("INCLUDE_MAX_DEPTH", cfg.IncludeMaxDepth)
	cfg.LineWidthMM = envFloat("LINE_WIDTH_MM", cfg.LineWidthMM)

	def := Default()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = def.JobTTL
	}
	if cfg.IncludeMaxDepth <= 0 {
		cfg.IncludeMaxDepth = def.IncludeMaxDepth
	}
	if cfg.LineWidthMM <= 0 {
		cfg.LineWidthMM = def.LineWidthMM
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("TEXGEST_API_KEY is required")
	}
	return nil
}

// BuildOptions maps the math and layout settings onto builder options.
func (c Config) BuildOptions() builder.Options {
	return builder.Options{
		Math: mathasm.Options{
			StrictBraces:      c.MathStrictBraces,
			NonBreakingSpaces: c.MathNonBreakingSpaces,
			StrictDelimiters:  c.MathStrictDelimiters,
		},
		LineWidthMM: c.LineWidthMM,
	}
}

// DocumentOptions returns the options for a full document build.
func (c Config) DocumentOptions() document.Options {
	return document.Options{
		Build:           c.BuildOptions(),
		MaxIncludeDepth: c.IncludeMaxDepth,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
