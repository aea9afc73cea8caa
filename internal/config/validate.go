package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. The LLM API key is checked
// separately by ValidateLLM since crawl and markdown stages run without it.
func (c *Config) Validate() error {
	if err := c.validateCrawler(); err != nil {
		return err
	}
	if err := c.validateLLMEndpoint(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateLLM reports whether language-model stages can run.
func (c *Config) ValidateLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required. Set %s env var or edit %s (create with 'talkpress config init')", envLLMAPIKey, defaultPath)
	}
	return nil
}

func (c *Config) validateCrawler() error {
	for key, value := range map[string]string{
		"crawler.base_url": c.Crawler.BaseURL,
		"crawler.list_url": c.Crawler.ListURL,
	} {
		if err := ensureHTTPURL(key, value); err != nil {
			return err
		}
	}
	switch c.Crawler.ClientProfile {
	case ClientProfileBrowser, ClientProfileSimple:
	default:
		return fmt.Errorf("crawler.client_profile: unsupported value %q (use %q or %q)", c.Crawler.ClientProfile, ClientProfileBrowser, ClientProfileSimple)
	}
	if err := ensureTimeout("crawler.timeout_seconds", c.Crawler.TimeoutSeconds); err != nil {
		return err
	}
	if c.Crawler.Command != "" && !strings.Contains(c.Crawler.Command, "{video_id}") {
		return errors.New("crawler.command must reference {video_id}")
	}
	return nil
}

func (c *Config) validateLLMEndpoint() error {
	if err := ensureHTTPURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	return ensureTimeout("llm.timeout_seconds", c.LLM.TimeoutSeconds)
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > maxPipelineConcurrency {
		return fmt.Errorf("pipeline.concurrency must be between 1 and %d", maxPipelineConcurrency)
	}
	if c.Pipeline.TargetLanguage == "" {
		return errors.New("pipeline.target_language must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensureHTTPURL(key, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}

func ensureTimeout(key string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%s must be positive (seconds)", key)
	}
	if seconds > maxTimeoutSeconds {
		return fmt.Errorf("%s must not exceed %d", key, maxTimeoutSeconds)
	}
	return nil
}
