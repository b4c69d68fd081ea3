package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"zenstudio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Directories are created, logging is quiet and the sample seed is disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Gemini.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.AssetDir = filepath.Join(base, "data", "assets")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Logging.Format = "json"
	cfgVal.Logging.Level = "error"
	cfgVal.Story.SeedSample = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIKey sets the Gemini API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.APIKey = key
	}
}

// WithBaseURL points the Gemini client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = url
	}
}

// WithSampleSeed enables seeding the sample story on first load.
func WithSampleSeed() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Story.SeedSample = true
	}
}

// WithStubbedFallback installs a stub speech executable as the fallback
// command. The stub appends its arguments to FallbackCapturePath(cfg).
func WithStubbedFallback() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		capture := filepath.Join(b.baseDir, "fallback.out")
		script := []byte("#!/bin/sh\nprintf '%s\\n' \"$@\" >> " + capture + "\n")
		target := filepath.Join(binDir, "say-stub")
		if err := os.WriteFile(target, script, 0o755); err != nil {
			b.t.Fatalf("write stub: %v", err)
		}
		b.cfg.Fallback.Command = []string{target}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// FallbackCapturePath returns the file the stubbed fallback command writes to.
func FallbackCapturePath(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "fallback.out")
}
