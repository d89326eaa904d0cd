// Package config provides configuration management for the documentation translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"doc-translator/internal/logger"
	"doc-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "doc-translator-config.json"
	// EnvOpenAIAPIKey is the environment variable for an OpenAI-compatible API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable for an OpenAI-compatible base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// EnvAnthropicAPIKey is the environment variable for an Anthropic API key
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	// EnvGitHubToken is the environment variable for the GitHub token
	EnvGitHubToken = "GITHUB_TOKEN"

	// DefaultOpenAIBaseURL is the default OpenAI-compatible endpoint
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultOpenAIModel is the default model on an OpenAI-compatible endpoint
	DefaultOpenAIModel = "gpt-4o"
	// DefaultAnthropicBaseURL is Anthropic's OpenAI-compatible endpoint
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	// DefaultAnthropicModel is the default Anthropic model
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

// Config is the application configuration. API keys and tokens are carried
// here explicitly; nothing downstream reads the process environment.
type Config struct {
	OpenAIAPIKey    string `json:"openai_api_key"`
	OpenAIBaseURL   string `json:"openai_base_url"`
	OpenAIModel     string `json:"openai_model"`
	AnthropicAPIKey string `json:"anthropic_api_key"`
	AnthropicModel  string `json:"anthropic_model"`

	GitHubToken string `json:"github_token"`
	// GitHubOwner/GitHubRepo identify the fork that translation branches are
	// pushed to; PRs are opened from there against the upstream project.
	GitHubOwner string `json:"github_owner"`
	GitHubRepo  string `json:"github_repo"`

	// ResultsDir is where translated documents are cached locally.
	ResultsDir string `json:"results_dir"`
}

// LLMSettings is the resolved provider selection for the translation engine.
type LLMSettings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ResolveLLM selects the LLM provider by configured key: Anthropic when its
// key is present, otherwise OpenAI-compatible settings. An error is returned
// when no key is configured at all.
func (c *Config) ResolveLLM() (*LLMSettings, error) {
	if c.AnthropicAPIKey != "" {
		model := c.AnthropicModel
		if model == "" {
			model = DefaultAnthropicModel
		}
		return &LLMSettings{APIKey: c.AnthropicAPIKey, BaseURL: DefaultAnthropicBaseURL, Model: model}, nil
	}
	if c.OpenAIAPIKey != "" {
		baseURL := c.OpenAIBaseURL
		if baseURL == "" {
			baseURL = DefaultOpenAIBaseURL
		}
		model := c.OpenAIModel
		if model == "" {
			model = DefaultOpenAIModel
		}
		return &LLMSettings{APIKey: c.OpenAIAPIKey, BaseURL: baseURL, Model: model}, nil
	}
	return nil, types.NewAppError(types.ErrConfig,
		"no API key found for translation, set "+EnvAnthropicAPIKey+" or "+EnvOpenAIAPIKey, nil)
}

// Manager loads and persists the application configuration.
type Manager struct {
	configPath string
	config     *Config
}

// NewManager creates a Manager with the specified config path.
// An empty path defaults to ~/.config/doc-translator/.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "doc-translator", DefaultConfigFileName)
	}

	logger.Debug("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *Config {
	return &Config{
		OpenAIBaseURL:  DefaultOpenAIBaseURL,
		OpenAIModel:    DefaultOpenAIModel,
		AnthropicModel: DefaultAnthropicModel,
	}
}

// Load reads the config file, then applies environment overrides. A missing
// file is not an error; a .env file in the working directory is honored.
func (m *Manager) Load() error {
	// Environment variables may live in a .env file during development.
	_ = godotenv.Load()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		cfg := &Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			m.config = cfg
		}
	}

	m.applyDefaults()
	m.applyEnvOverrides()
	return nil
}

func (m *Manager) applyDefaults() {
	if m.config.OpenAIBaseURL == "" {
		m.config.OpenAIBaseURL = DefaultOpenAIBaseURL
	}
	if m.config.OpenAIModel == "" {
		m.config.OpenAIModel = DefaultOpenAIModel
	}
	if m.config.AnthropicModel == "" {
		m.config.AnthropicModel = DefaultAnthropicModel
	}
	if m.config.ResultsDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			m.config.ResultsDir = filepath.Join(homeDir, ".doc-translator", "results")
		}
	}
}

// applyEnvOverrides lets environment variables take precedence over the file.
func (m *Manager) applyEnvOverrides() {
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		m.config.OpenAIAPIKey = v
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		m.config.OpenAIBaseURL = v
	}
	if v := os.Getenv(EnvAnthropicAPIKey); v != "" {
		m.config.AnthropicAPIKey = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		m.config.GitHubToken = v
	}
}

// Save writes the configuration to the config file.
func (m *Manager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}
