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

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations for the worker database, logs, and artifacts.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	ArtifactsURL string `toml:"artifacts_url"`
}

// Worker contains queue polling intervals in seconds.
type Worker struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Export contains settings for the election package pipeline.
type Export struct {
	Concurrency        int      `toml:"concurrency"`
	GrayscaleTemplates []string `toml:"grayscale_templates"`
	GhostscriptBinary  string   `toml:"ghostscript_binary"`
}

// Renderer contains the ballot layout service connection.
type Renderer struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	BatchSize      int    `toml:"batch_size"`
	Concurrency    int    `toml:"concurrency"`
}

// Translation contains the cloud translation API connection.
type Translation struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Speech contains the cloud speech synthesis API connection.
type Speech struct {
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Voice             string `toml:"voice"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxCacheableBytes int    `toml:"max_cacheable_bytes"`
}

// QABuild contains the CI webhook used to request QA builds after an export.
type QABuild struct {
	WebhookURL     string `toml:"webhook_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Tracing contains configuration for span export.
type Tracing struct {
	Enabled    bool   `toml:"enabled"`
	OutputPath string `toml:"output_path"`
}

// Config encapsulates all configuration values for ballotforge.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and artifact locations
//   - Worker: queue polling cadence
//   - Export: PDF normalization and parallelism
//   - Renderer: ballot layout service
//   - Translation / Speech: paid cloud APIs behind the caches
//   - QABuild: optional CI trigger after exports
//   - Logging / Tracing: observability output
type Config struct {
	Paths       Paths       `toml:"paths"`
	Worker      Worker      `toml:"worker"`
	Export      Export      `toml:"export"`
	Renderer    Renderer    `toml:"renderer"`
	Translation Translation `toml:"translation"`
	Speech      Speech      `toml:"speech"`
	QABuild     QABuild     `toml:"qa_build"`
	Logging     Logging     `toml:"logging"`
	Tracing     Tracing     `toml:"tracing"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file beside the config file (or in the
// working directory) is loaded first so secrets can stay out of TOML.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
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

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ballotforge.toml")
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

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(configDir string) error {
	candidates := []string{filepath.Join(configDir, ".env"), ".env"}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

// EnsureDirectories creates the data and log directories, plus the artifact
// directory when artifacts are written to the local filesystem.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if local, ok := c.LocalArtifactsDir(); ok {
		if err := os.MkdirAll(local, 0o755); err != nil {
			return fmt.Errorf("create artifacts directory %q: %w", local, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database holding tasks, elections, and caches.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "ballotforge.db")
}

// LockPath returns the lock file guarding single-worker execution.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "worker.lock")
}

// LogFilePath returns the worker log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "ballotforge.log")
}

// LocalArtifactsDir reports the artifact directory when artifacts_url points
// at the local filesystem.
func (c *Config) LocalArtifactsDir() (string, bool) {
	value := strings.TrimSpace(c.Paths.ArtifactsURL)
	switch {
	case value == "":
		return "", false
	case strings.HasPrefix(value, "file://"):
		return strings.TrimPrefix(value, "file://"), true
	case strings.Contains(value, "://"):
		return "", false
	default:
		return value, true
	}
}

// QueuePollInterval returns the idle sleep between queue polls.
func (c *Config) QueuePollInterval() time.Duration {
	return time.Duration(c.Worker.QueuePollInterval) * time.Second
}

// ErrorRetryInterval returns the pause after a failed queue poll.
func (c *Config) ErrorRetryInterval() time.Duration {
	return time.Duration(c.Worker.ErrorRetryInterval) * time.Second
}

// UsesGrayscale reports whether ballots rendered with templateID must be
// converted to grayscale before printing.
func (c *Config) UsesGrayscale(templateID string) bool {
	for _, candidate := range c.Export.GrayscaleTemplates {
		if strings.EqualFold(candidate, templateID) {
			return true
		}
	}
	return false
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
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
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
