package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. A missing Gemini key is not an
// error: the credential may be stored with the studio state instead.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateStory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateGemini() error {
	parsed, err := url.Parse(c.Gemini.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("gemini.base_url must be an absolute URL, got %q", c.Gemini.BaseURL)
	}
	if c.Gemini.TimeoutSeconds < 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageSQLite:
		return nil
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required when storage.backend is postgres (or set ZENSTUDIO_POSTGRES_DSN)")
		}
		return nil
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (want sqlite or postgres)", c.Storage.Backend)
	}
}

func (c *Config) validateStory() error {
	if c.Story.IdleTimeoutSeconds < 0 {
		return errors.New("story.idle_timeout_sec must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
