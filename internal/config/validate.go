package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateCloud(); err != nil {
		return err
	}
	if err := c.validateQABuild(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWorker() error {
	return ensurePositiveMap(map[string]int{
		"worker.queue_poll_interval":  c.Worker.QueuePollInterval,
		"worker.error_retry_interval": c.Worker.ErrorRetryInterval,
	})
}

func (c *Config) validateExport() error {
	if c.Export.Concurrency <= 0 {
		return errors.New("export.concurrency must be positive")
	}
	if strings.TrimSpace(c.Export.GhostscriptBinary) == "" {
		return errors.New("export.ghostscript_binary must be set")
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if err := ensureHTTPURL("renderer.base_url", c.Renderer.BaseURL); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"renderer.timeout_seconds": c.Renderer.TimeoutSeconds,
		"renderer.batch_size":      c.Renderer.BatchSize,
		"renderer.concurrency":     c.Renderer.Concurrency,
	})
}

func (c *Config) validateCloud() error {
	if err := ensureHTTPURL("translation.base_url", c.Translation.BaseURL); err != nil {
		return err
	}
	if err := ensureHTTPURL("speech.base_url", c.Speech.BaseURL); err != nil {
		return err
	}
	if c.Speech.MaxCacheableBytes <= 0 {
		return errors.New("speech.max_cacheable_bytes must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"translation.timeout_seconds": c.Translation.TimeoutSeconds,
		"speech.timeout_seconds":      c.Speech.TimeoutSeconds,
	})
}

func (c *Config) validateQABuild() error {
	if c.QABuild.WebhookURL == "" {
		return nil
	}
	if err := ensureHTTPURL("qa_build.webhook_url", c.QABuild.WebhookURL); err != nil {
		return err
	}
	if c.QABuild.Token == "" {
		return errors.New("qa_build.token must be set when qa_build.webhook_url is configured (or set BALLOTFORGE_QA_WEBHOOK_TOKEN)")
	}
	if c.QABuild.TimeoutSeconds <= 0 {
		return errors.New("qa_build.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensureHTTPURL(key, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", key)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL", key)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
