package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGemini()
	c.normalizeStorage()
	c.normalizeFallback()
	c.normalizeStory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetDir) == "" {
		c.Paths.AssetDir = filepath.Join(c.Paths.DataDir, defaultAssetSubdirectory)
	}
	if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, defaultLogSubdirectoryName)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.TTSModel = strings.TrimSpace(c.Gemini.TTSModel)
	if c.Gemini.TTSModel == "" {
		c.Gemini.TTSModel = defaultTTSModel
	}
	c.Gemini.RewriteModel = strings.TrimSpace(c.Gemini.RewriteModel)
	if c.Gemini.RewriteModel == "" {
		c.Gemini.RewriteModel = defaultRewriteModel
	}
	c.Gemini.Voice = strings.TrimSpace(c.Gemini.Voice)
	if c.Gemini.Voice == "" {
		c.Gemini.Voice = defaultVoice
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	c.Storage.PostgresDSN = strings.TrimSpace(c.Storage.PostgresDSN)
}

func (c *Config) normalizeFallback() {
	cmd := make([]string, 0, len(c.Fallback.Command))
	for _, part := range c.Fallback.Command {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cmd = append(cmd, trimmed)
		}
	}
	c.Fallback.Command = cmd
}

func (c *Config) normalizeStory() {
	c.Story.DefaultImage = strings.TrimSpace(c.Story.DefaultImage)
	if c.Story.DefaultImage == "" {
		c.Story.DefaultImage = defaultStoryImage
	}
	c.Story.DefaultMood = strings.TrimSpace(c.Story.DefaultMood)
	if c.Story.DefaultMood == "" {
		c.Story.DefaultMood = defaultStoryMood
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
