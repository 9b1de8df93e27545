package testsupport

import (
	"path/filepath"
	"testing"

	"ballotforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Cloud endpoints point nowhere routable; tests override the ones they use.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ArtifactsURL = filepath.Join(base, "artifacts")
	cfgVal.Renderer.BaseURL = "http://127.0.0.1:9"
	cfgVal.Translation.BaseURL = "http://127.0.0.1:9"
	cfgVal.Speech.BaseURL = "http://127.0.0.1:9"
	cfgVal.Worker.QueuePollInterval = 1
	cfgVal.Worker.ErrorRetryInterval = 1

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

// WithRenderer points the renderer client at baseURL.
func WithRenderer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renderer.BaseURL = baseURL
	}
}

// WithTranslation points the translation client at baseURL.
func WithTranslation(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.BaseURL = baseURL
		b.cfg.Translation.APIKey = "test-translate-key"
	}
}

// WithSpeech points the speech client at baseURL.
func WithSpeech(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speech.BaseURL = baseURL
		b.cfg.Speech.APIKey = "test-speech-key"
	}
}

// WithQABuild enables the QA webhook.
func WithQABuild(webhookURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.QABuild.WebhookURL = webhookURL
		b.cfg.QABuild.Token = "test-qa-token"
	}
}

// WithGrayscale sets the templates that require grayscale normalization.
func WithGrayscale(templates ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.GrayscaleTemplates = templates
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
