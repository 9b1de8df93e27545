package config

const (
	defaultConfigPath              = "~/.config/ballotforge/config.toml"
	defaultDataDir                 = "~/.local/share/ballotforge"
	defaultLogDir                  = "~/.local/share/ballotforge/logs"
	defaultArtifactsSubdir         = "artifacts"
	defaultQueuePollInterval       = 1
	defaultErrorRetryInterval      = 5
	defaultExportConcurrency       = 4
	defaultGhostscriptBinary       = "gs"
	defaultRendererBaseURL         = "http://127.0.0.1:3002"
	defaultRendererTimeoutSeconds  = 600
	defaultRendererBatchSize       = 50
	defaultRendererConcurrency     = 2
	defaultTranslationBaseURL      = "https://translation.googleapis.com"
	defaultSpeechBaseURL           = "https://texttospeech.googleapis.com"
	defaultSpeechVoice             = "neutral"
	defaultCloudTimeoutSeconds     = 60
	defaultSpeechMaxCacheableBytes = 2704
	defaultQABuildTimeoutSeconds   = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Worker: Worker{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Export: Export{
			Concurrency:        defaultExportConcurrency,
			GrayscaleTemplates: []string{"NhBallot"},
			GhostscriptBinary:  defaultGhostscriptBinary,
		},
		Renderer: Renderer{
			BaseURL:        defaultRendererBaseURL,
			TimeoutSeconds: defaultRendererTimeoutSeconds,
			BatchSize:      defaultRendererBatchSize,
			Concurrency:    defaultRendererConcurrency,
		},
		Translation: Translation{
			BaseURL:        defaultTranslationBaseURL,
			TimeoutSeconds: defaultCloudTimeoutSeconds,
		},
		Speech: Speech{
			BaseURL:           defaultSpeechBaseURL,
			Voice:             defaultSpeechVoice,
			TimeoutSeconds:    defaultCloudTimeoutSeconds,
			MaxCacheableBytes: defaultSpeechMaxCacheableBytes,
		},
		QABuild: QABuild{
			TimeoutSeconds: defaultQABuildTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
