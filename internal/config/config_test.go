package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"talkpress/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(home, ".config", "talkpress", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(home, ".local", "share", "talkpress", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.PromptsDir != "" {
		t.Fatalf("expected empty prompts dir, got %q", cfg.Paths.PromptsDir)
	}
	if !cfg.Pipeline.Cache {
		t.Fatal("expected cache enabled by default")
	}
	if cfg.Pipeline.Podcast {
		t.Fatal("expected podcast stage disabled by default")
	}
	if cfg.Crawler.ClientProfile != config.ClientProfileBrowser {
		t.Fatalf("unexpected client profile %q", cfg.Crawler.ClientProfile)
	}
	if err := cfg.ValidateLLM(); err == nil {
		t.Fatal("expected ValidateLLM to require an API key")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryPath)} {
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
	isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "talkpress.toml")
	contents := `
[paths]
output_dir = "` + filepath.ToSlash(t.TempDir()) + `"

[crawler]
base_url = "https://example.com/play/"
client_profile = "SIMPLE"

[llm]
api_key = "  abc123  "
model = "openai/gpt-4o-mini"

[pipeline]
concurrency = 4
cache = false
podcast = true

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Crawler.BaseURL != "https://example.com/play" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Crawler.BaseURL)
	}
	if cfg.Crawler.ClientProfile != config.ClientProfileSimple {
		t.Fatalf("expected client profile normalized, got %q", cfg.Crawler.ClientProfile)
	}
	llm := cfg.GetLLM()
	if llm.APIKey != "abc123" || llm.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected llm config %+v", llm)
	}
	if cfg.Pipeline.Concurrency != 4 || cfg.Pipeline.Cache || !cfg.Pipeline.Podcast {
		t.Fatalf("unexpected pipeline config %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.TargetLanguage != "Simplified Chinese" {
		t.Fatalf("expected default target language, got %q", cfg.Pipeline.TargetLanguage)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected log format normalized, got %q", cfg.Logging.Format)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Fatalf("ValidateLLM: %v", err)
	}
}

func TestLoadProjectConfigFallback(t *testing.T) {
	isolateEnv(t)
	if err := os.WriteFile("talkpress.toml", []byte("[pipeline]\nconcurrency = 3\n"), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "talkpress.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Pipeline.Concurrency != 3 {
		t.Fatalf("expected concurrency 3, got %d", cfg.Pipeline.Concurrency)
	}
}

func TestEnvVarFallbacks(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "deepseek/deepseek-chat")
	t.Setenv("LLM_BASE_URL", "https://llm.example.com/v1/chat/completions")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected API key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "deepseek/deepseek-chat" {
		t.Fatalf("expected model from env, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "https://llm.example.com/v1/chat/completions" {
		t.Fatalf("expected base url from env, got %q", cfg.LLM.BaseURL)
	}
}

func TestConfigFileWinsOverEnvModel(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LLM_MODEL", "env/model")
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("[llm]\nmodel = \"file/model\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.Model != "file/model" {
		t.Fatalf("expected file model to win, got %q", cfg.LLM.Model)
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[pipeline\nconcurrency = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputDir, "talkpress") {
		t.Fatalf("expected output dir to contain talkpress, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Pipeline.Concurrency != config.Default().Pipeline.Concurrency {
		t.Fatalf("sample concurrency %d differs from default", cfg.Pipeline.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "zero concurrency", mutate: func(c *config.Config) { c.Pipeline.Concurrency = 0 }},
		{name: "huge concurrency", mutate: func(c *config.Config) { c.Pipeline.Concurrency = 1000 }},
		{name: "client profile", mutate: func(c *config.Config) { c.Crawler.ClientProfile = "lynx" }},
		{name: "crawler timeout", mutate: func(c *config.Config) { c.Crawler.TimeoutSeconds = -1 }},
		{name: "base url scheme", mutate: func(c *config.Config) { c.Crawler.BaseURL = "ftp://example.com" }},
		{name: "llm url host", mutate: func(c *config.Config) { c.LLM.BaseURL = "https://" }},
		{name: "command placeholder", mutate: func(c *config.Config) { c.Crawler.Command = "fetch --year {year}" }},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }},
		{name: "log level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }},
		{name: "target language", mutate: func(c *config.Config) { c.Pipeline.TargetLanguage = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
