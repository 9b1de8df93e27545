package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeRenderer()
	c.normalizeTranslation()
	c.normalizeSpeech()
	c.normalizeQABuild()
	c.normalizeLogging()
	return c.normalizeTracing()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.ArtifactsURL = strings.TrimSpace(c.Paths.ArtifactsURL)
	switch {
	case c.Paths.ArtifactsURL == "":
		c.Paths.ArtifactsURL = filepath.Join(c.Paths.DataDir, defaultArtifactsSubdir)
	case strings.Contains(c.Paths.ArtifactsURL, "://"):
		c.Paths.ArtifactsURL = strings.TrimRight(c.Paths.ArtifactsURL, "/")
	default:
		if c.Paths.ArtifactsURL, err = expandPath(c.Paths.ArtifactsURL); err != nil {
			return fmt.Errorf("paths.artifacts_url: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.GhostscriptBinary = strings.TrimSpace(c.Export.GhostscriptBinary)
	if c.Export.GhostscriptBinary == "" {
		c.Export.GhostscriptBinary = defaultGhostscriptBinary
	}
	templates := make([]string, 0, len(c.Export.GrayscaleTemplates))
	seen := make(map[string]struct{}, len(c.Export.GrayscaleTemplates))
	for _, template := range c.Export.GrayscaleTemplates {
		trimmed := strings.TrimSpace(template)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(trimmed)]; ok {
			continue
		}
		seen[strings.ToLower(trimmed)] = struct{}{}
		templates = append(templates, trimmed)
	}
	c.Export.GrayscaleTemplates = templates
}

func (c *Config) normalizeRenderer() {
	c.Renderer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Renderer.BaseURL), "/")
	if c.Renderer.BaseURL == "" {
		c.Renderer.BaseURL = defaultRendererBaseURL
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("BALLOTFORGE_TRANSLATE_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.BaseURL), "/")
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = defaultTranslationBaseURL
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		if value, ok := os.LookupEnv("BALLOTFORGE_SPEECH_API_KEY"); ok {
			c.Speech.APIKey = strings.TrimSpace(value)
		}
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
}

func (c *Config) normalizeQABuild() {
	c.QABuild.WebhookURL = strings.TrimSpace(c.QABuild.WebhookURL)
	c.QABuild.Token = strings.TrimSpace(c.QABuild.Token)
	if c.QABuild.Token == "" {
		if value, ok := os.LookupEnv("BALLOTFORGE_QA_WEBHOOK_TOKEN"); ok {
			c.QABuild.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTracing() error {
	c.Tracing.OutputPath = strings.TrimSpace(c.Tracing.OutputPath)
	if c.Tracing.OutputPath == "" {
		return nil
	}
	var err error
	if c.Tracing.OutputPath, err = expandPath(c.Tracing.OutputPath); err != nil {
		return fmt.Errorf("tracing.output_path: %w", err)
	}
	return nil
}
