package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	AssetDir string `toml:"asset_dir"`
	LogDir   string `toml:"log_dir"`
}

// Gemini contains the speech synthesis and text rewrite service settings.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TTSModel       string `toml:"tts_model"`
	RewriteModel   string `toml:"rewrite_model"`
	Voice          string `toml:"voice"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage selects the persisted state backend.
type Storage struct {
	Backend     string `toml:"backend"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// Fallback describes the local speech command used when generation fails.
// The segment text is appended as the final argument.
type Fallback struct {
	Command []string `toml:"command"`
}

// Story contains defaults applied to newly created stories and segments.
type Story struct {
	DefaultImage       string  `toml:"default_image"`
	DefaultMood        string  `toml:"default_mood"`
	NormalizationLUFS  float64 `toml:"normalization_lufs"`
	IdleTimeoutSeconds int     `toml:"idle_timeout_sec"`
	SeedSample         bool    `toml:"seed_sample"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the studio.
//
// Configuration sections by subsystem:
//   - Paths: data, asset and log directories
//   - Gemini: speech synthesis and rewrite endpoint, models and voice
//   - Storage: sqlite (default) or postgres state backend
//   - Fallback: local speech command for failed generations
//   - Story: segment defaults and seed behaviour
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Gemini   Gemini   `toml:"gemini"`
	Storage  Storage  `toml:"storage"`
	Fallback Fallback `toml:"fallback"`
	Story    Story    `toml:"story"`
	Logging  Logging  `toml:"logging"`
}

// envOverrides lists the environment variables honoured on top of the file.
type envOverrides struct {
	APIKey         string `env:"ZENSTUDIO_GEMINI_API_KEY"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	DataDir        string `env:"ZENSTUDIO_DATA_DIR"`
	StorageBackend string `env:"ZENSTUDIO_STORAGE_BACKEND"`
	PostgresDSN    string `env:"ZENSTUDIO_POSTGRES_DSN"`
	LogLevel       string `env:"ZENSTUDIO_LOG_LEVEL"`
	LogFormat      string `env:"ZENSTUDIO_LOG_FORMAT"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/zenstudio/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		c.Gemini.APIKey = firstNonEmpty(overrides.APIKey, overrides.GeminiAPIKey)
	}
	if overrides.DataDir != "" {
		c.Paths.DataDir = overrides.DataDir
	}
	if overrides.StorageBackend != "" {
		c.Storage.Backend = overrides.StorageBackend
	}
	if overrides.PostgresDSN != "" {
		c.Storage.PostgresDSN = overrides.PostgresDSN
	}
	if overrides.LogLevel != "" {
		c.Logging.Level = overrides.LogLevel
	}
	if overrides.LogFormat != "" {
		c.Logging.Format = overrides.LogFormat
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("zenstudio.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data, asset and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.AssetDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, defaultDatabaseFileName)
}

// GeminiTimeout returns the HTTP timeout for calls to the Gemini endpoint.
func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
