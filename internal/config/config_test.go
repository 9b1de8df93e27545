package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ballotforge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BALLOTFORGE_TRANSLATE_API_KEY", "env-translate")

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

	wantData := filepath.Join(tempHome, ".local", "share", "ballotforge")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.ArtifactsURL != filepath.Join(wantData, "artifacts") {
		t.Fatalf("unexpected artifacts url: %q", cfg.Paths.ArtifactsURL)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "ballotforge.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Translation.APIKey != "env-translate" {
		t.Fatalf("expected translation key from env, got %q", cfg.Translation.APIKey)
	}
	if cfg.Speech.MaxCacheableBytes != 2704 {
		t.Fatalf("unexpected speech cache threshold: %d", cfg.Speech.MaxCacheableBytes)
	}
	if cfg.QueuePollInterval().Seconds() != 1 {
		t.Fatalf("unexpected poll interval: %s", cfg.QueuePollInterval())
	}
	if !cfg.UsesGrayscale("nhballot") {
		t.Fatal("expected default grayscale template to match case-insensitively")
	}
	if cfg.UsesGrayscale("VxDefaultBallot") {
		t.Fatal("expected VxDefaultBallot to keep colour")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	local, ok := cfg.LocalArtifactsDir()
	if !ok {
		t.Fatal("expected local artifacts directory")
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, local} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ballotforge.toml")

	type payload struct {
		Paths struct {
			DataDir      string `toml:"data_dir"`
			ArtifactsURL string `toml:"artifacts_url"`
		} `toml:"paths"`
		Worker struct {
			QueuePollInterval int `toml:"queue_poll_interval"`
		} `toml:"worker"`
		Export struct {
			GrayscaleTemplates []string `toml:"grayscale_templates"`
		} `toml:"export"`
		Renderer struct {
			BaseURL string `toml:"base_url"`
		} `toml:"renderer"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Paths.ArtifactsURL = "s3://ballots-bucket/exports/"
	custom.Worker.QueuePollInterval = 3
	custom.Export.GrayscaleTemplates = []string{" NhBallot ", "nhballot", "", "MsBallot"}
	custom.Renderer.BaseURL = "http://render.internal:9000/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ArtifactsURL != "s3://ballots-bucket/exports" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Paths.ArtifactsURL)
	}
	if _, ok := cfg.LocalArtifactsDir(); ok {
		t.Fatal("expected remote artifacts url to be non-local")
	}
	if cfg.Worker.QueuePollInterval != 3 {
		t.Fatalf("expected poll interval 3, got %d", cfg.Worker.QueuePollInterval)
	}
	if got := strings.Join(cfg.Export.GrayscaleTemplates, ","); got != "NhBallot,MsBallot" {
		t.Fatalf("unexpected grayscale templates: %q", got)
	}
	if cfg.Renderer.BaseURL != "http://render.internal:9000" {
		t.Fatalf("unexpected renderer url: %q", cfg.Renderer.BaseURL)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	const key = "BALLOTFORGE_SPEECH_API_KEY"
	previous, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, previous)
		} else {
			_ = os.Unsetenv(key)
		}
	})

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ballotforge.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\ndata_dir = \""+filepath.ToSlash(filepath.Join(tempDir, "data"))+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(key+"=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Speech.APIKey != "from-dotenv" {
		t.Fatalf("expected speech key from .env, got %q", cfg.Speech.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_translation_api_key_here") {
		t.Fatalf("sample config missing placeholder translation key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Speech.MaxCacheableBytes != 2704 {
		t.Fatalf("unexpected sample speech threshold: %d", cfg.Speech.MaxCacheableBytes)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Worker.QueuePollInterval = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "worker.queue_poll_interval") {
		t.Fatalf("expected poll interval error, got %v", err)
	}

	cfg = config.Default()
	cfg.Export.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for export concurrency")
	}

	cfg = config.Default()
	cfg.Renderer.BaseURL = "ftp://render"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http renderer url")
	}

	cfg = config.Default()
	cfg.Speech.MaxCacheableBytes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for speech cache threshold")
	}

	cfg = config.Default()
	cfg.QABuild.WebhookURL = "https://ci.example.com/trigger"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when qa webhook lacks a token")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
