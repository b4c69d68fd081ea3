package config

const (
	defaultDataDir             = "~/.local/share/zenstudio"
	defaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultTTSModel            = "gemini-2.5-flash-preview-tts"
	defaultRewriteModel        = "gemini-2.5-flash"
	defaultVoice               = "Kore"
	defaultGeminiTimeout       = 60
	defaultStorageBackend      = StorageSQLite
	defaultStoryImage          = "https://picsum.photos/400/300?grayscale"
	defaultStoryMood           = "Neutral"
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
	defaultNormalizationLUFS   = -16
	defaultIdleTimeoutSeconds  = 300
	defaultDatabaseFileName    = "zenstudio.db"
	defaultLogSubdirectoryName = "logs"
	defaultAssetSubdirectory   = "assets"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			TTSModel:       defaultTTSModel,
			RewriteModel:   defaultRewriteModel,
			Voice:          defaultVoice,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Story: Story{
			DefaultImage:       defaultStoryImage,
			DefaultMood:        defaultStoryMood,
			NormalizationLUFS:  defaultNormalizationLUFS,
			IdleTimeoutSeconds: defaultIdleTimeoutSeconds,
			SeedSample:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
