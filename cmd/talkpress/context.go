package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"talkpress/internal/cache"
	"talkpress/internal/config"
	"talkpress/internal/crawler"
	"talkpress/internal/history"
	"talkpress/internal/llm"
	"talkpress/internal/logging"
	"talkpress/internal/pipeline"
	"talkpress/internal/prompts"
	"talkpress/internal/transform"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) cacheStore() (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cache.NewStore(cfg.Paths.OutputDir, logger), nil
}

// openHistory opens the run history database. The caller closes it.
func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// fetcher selects the external command fetcher when one is configured.
func (c *commandContext) fetcher() (pipeline.Fetcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second
	if cfg.Crawler.Command != "" {
		return crawler.NewExecFetcher(cfg.Crawler.Command, timeout, logger)
	}
	return c.httpFetcher()
}

func (c *commandContext) httpFetcher() (*crawler.HTTPFetcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	profile, err := crawler.ParseProfile(cfg.Crawler.ClientProfile)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Crawler.TimeoutSeconds) * time.Second
	return crawler.NewHTTPFetcher(cfg.Crawler.BaseURL, cfg.Crawler.ListURL, profile, timeout, logger), nil
}

func (c *commandContext) transformer() (*transform.LLMTransformer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	settings := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	}, llm.WithLogger(logger))
	library := prompts.NewLibrary(cfg.Paths.PromptsDir, cfg.Pipeline.TargetLanguage)
	return transform.NewLLMTransformer(client, library, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
