package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"zenstudio/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ZENSTUDIO_GEMINI_API_KEY",
		"GEMINI_API_KEY",
		"ZENSTUDIO_DATA_DIR",
		"ZENSTUDIO_STORAGE_BACKEND",
		"ZENSTUDIO_POSTGRES_DSN",
		"ZENSTUDIO_LOG_LEVEL",
		"ZENSTUDIO_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "zenstudio")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.AssetDir != filepath.Join(wantData, "assets") {
		t.Fatalf("unexpected asset dir: %q", cfg.Paths.AssetDir)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "zenstudio.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Gemini.Voice != "Kore" {
		t.Fatalf("expected default voice Kore, got %q", cfg.Gemini.Voice)
	}
	if cfg.Storage.Backend != config.StorageSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Gemini.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "fallback-key")
	t.Setenv("ZENSTUDIO_LOG_LEVEL", "debug")
	dataDir := t.TempDir()
	t.Setenv("ZENSTUDIO_DATA_DIR", dataDir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "fallback-key" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("expected data dir override, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadPrefersStudioKeyOverGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "generic")
	t.Setenv("ZENSTUDIO_GEMINI_API_KEY", "specific")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "specific" {
		t.Fatalf("expected studio key, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "env-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Gemini.APIKey = "file-key"
	cfg.Gemini.Voice = "Puck"
	cfg.Fallback.Command = []string{" espeak-ng ", ""}

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q exists=%v", path, resolved, exists)
	}
	if loaded.Gemini.APIKey != "file-key" {
		t.Fatalf("expected file key to win over env, got %q", loaded.Gemini.APIKey)
	}
	if loaded.Gemini.Voice != "Puck" {
		t.Fatalf("unexpected voice %q", loaded.Gemini.Voice)
	}
	if len(loaded.Fallback.Command) != 1 || loaded.Fallback.Command[0] != "espeak-ng" {
		t.Fatalf("unexpected fallback command %v", loaded.Fallback.Command)
	}
}

func TestValidateRejectsPostgresWithoutDSN(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.StoragePostgres
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "postgres_dsn") {
		t.Fatalf("expected postgres_dsn error, got %v", err)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Gemini.TTSModel != "gemini-2.5-flash-preview-tts" {
		t.Fatalf("unexpected tts model %q", cfg.Gemini.TTSModel)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.AssetDir = filepath.Join(base, "data", "assets")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.AssetDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
