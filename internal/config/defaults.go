package config

const (
	defaultConfigPath         = "~/.config/talkpress/config.toml"
	projectConfigName         = "talkpress.toml"
	defaultOutputDir          = "~/.local/share/talkpress/output"
	defaultLogDir             = "~/.local/share/talkpress/logs"
	defaultHistoryPath        = "~/.local/share/talkpress/history.db"
	defaultCrawlerBaseURL     = "https://developer.apple.com/videos/play"
	defaultCrawlerListURL     = "https://developer.apple.com/videos"
	defaultClientProfile      = ClientProfileBrowser
	defaultCrawlerTimeout     = 30
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTitle           = "talkpress"
	defaultLLMTimeoutSeconds  = 300
	defaultConcurrency        = 2
	defaultTargetLanguage     = "Simplified Chinese"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	maxPipelineConcurrency    = 32
	maxTimeoutSeconds         = 3600
	ClientProfileBrowser      = "browser"
	ClientProfileSimple       = "simple"
	envLLMAPIKey              = "LLM_API_KEY"
	envLLMBaseURL             = "LLM_BASE_URL"
	envLLMModel               = "LLM_MODEL"
	envOpenRouterAPIKeyLegacy = "OPENROUTER_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
			HistoryPath: defaultHistoryPath,
		},
		Crawler: Crawler{
			BaseURL:        defaultCrawlerBaseURL,
			ListURL:        defaultCrawlerListURL,
			ClientProfile:  defaultClientProfile,
			TimeoutSeconds: defaultCrawlerTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			Concurrency:    defaultConcurrency,
			Cache:          true,
			TargetLanguage: defaultTargetLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
