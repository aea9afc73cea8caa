package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCrawler()
	c.normalizeLLM()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.PromptsDir, err = expandPath(strings.TrimSpace(c.Paths.PromptsDir)); err != nil {
		return fmt.Errorf("paths.prompts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryPath) == "" {
		c.Paths.HistoryPath = defaultHistoryPath
	}
	if c.Paths.HistoryPath, err = expandPath(c.Paths.HistoryPath); err != nil {
		return fmt.Errorf("paths.history_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCrawler() {
	c.Crawler.BaseURL = strings.TrimRight(strings.TrimSpace(c.Crawler.BaseURL), "/")
	if c.Crawler.BaseURL == "" {
		c.Crawler.BaseURL = defaultCrawlerBaseURL
	}
	c.Crawler.ListURL = strings.TrimRight(strings.TrimSpace(c.Crawler.ListURL), "/")
	if c.Crawler.ListURL == "" {
		c.Crawler.ListURL = defaultCrawlerListURL
	}
	c.Crawler.ClientProfile = strings.ToLower(strings.TrimSpace(c.Crawler.ClientProfile))
	if c.Crawler.ClientProfile == "" {
		c.Crawler.ClientProfile = defaultClientProfile
	}
	if c.Crawler.TimeoutSeconds == 0 {
		c.Crawler.TimeoutSeconds = defaultCrawlerTimeout
	}
	c.Crawler.Command = strings.TrimSpace(c.Crawler.Command)
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv(envLLMAPIKey); ok {
			c.LLM.APIKey = value
		} else if value, ok := os.LookupEnv(envOpenRouterAPIKeyLegacy); ok {
			c.LLM.APIKey = value
		}
	}
	if value, ok := os.LookupEnv(envLLMBaseURL); ok && strings.TrimSpace(value) != "" && c.LLM.BaseURL == defaultLLMBaseURL {
		c.LLM.BaseURL = value
	}
	if value, ok := os.LookupEnv(envLLMModel); ok && strings.TrimSpace(value) != "" && c.LLM.Model == defaultLLMModel {
		c.LLM.Model = value
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if strings.TrimSpace(c.LLM.Title) == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = defaultConcurrency
	}
	c.Pipeline.TargetLanguage = strings.TrimSpace(c.Pipeline.TargetLanguage)
	if c.Pipeline.TargetLanguage == "" {
		c.Pipeline.TargetLanguage = defaultTargetLanguage
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
