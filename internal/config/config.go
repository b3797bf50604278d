package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo contains the basic application information.
type AppInfo struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
}

// GeminiConfig holds the Gemini model configuration.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// AzureOpenAIConfig holds the Azure-hosted OpenAI model configuration.
type AzureOpenAIConfig struct {
	APIKey     string `yaml:"apiKey"`
	Endpoint   string `yaml:"endpoint"` // https://<resource>.openai.azure.com/
	APIVersion string `yaml:"apiVersion"`
	Model      string `yaml:"model"`
}

// OllamaConfig holds the configuration for a locally hosted Ollama model.
type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"` // defaults to http://localhost:11434
	Model   string `yaml:"model"`
}

// LLMConfig selects and configures the LLM provider driving the agents.
type LLMConfig struct {
	Provider string            `yaml:"provider"` // "gemini", "azure" or "ollama"
	Gemini   GeminiConfig      `yaml:"gemini"`
	Azure    AzureOpenAIConfig `yaml:"azure"`
	Ollama   OllamaConfig      `yaml:"ollama"`
	// MaxSteps bounds the tool-calling loop per agent run. Zero uses the
	// runtime default.
	MaxSteps int `yaml:"maxSteps"`
}

// RxNormConfig configures the RxNav drug identifier service.
type RxNormConfig struct {
	BaseURL string `yaml:"baseURL"` // defaults to https://rxnav.nlm.nih.gov/REST/
}

// ICDConfig configures the WHO ICD-11 service. ClientID and ClientSecret
// act as defaults for the matching task settings when the caller does not
// supply them.
type ICDConfig struct {
	BaseURL      string `yaml:"baseURL"`  // defaults to https://id.who.int/
	TokenURL     string `yaml:"tokenURL"` // defaults to https://icdaccessmanagement.who.int/connect/token
	Release      string `yaml:"release"`  // defaults to "2022-02"
	ClientID     string `yaml:"clientID"`
	ClientSecret string `yaml:"clientSecret"`
}

// SNOMEDConfig configures the Snowstorm terminology server. BaseURL and
// Edition act as defaults for the matching task settings.
type SNOMEDConfig struct {
	BaseURL string `yaml:"baseURL"`
	Edition string `yaml:"edition"` // e.g. "MAIN/SNOMEDCT-US"
}

// VocabConfig groups the external vocabulary service endpoints.
type VocabConfig struct {
	RxNorm RxNormConfig `yaml:"rxnorm"`
	ICD    ICDConfig    `yaml:"icd"`
	SNOMED SNOMEDConfig `yaml:"snomed"`
}

// TokenBucketConfig configures the token bucket rate limiter.
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // tokens per second
	Capacity int     `yaml:"capacity"`
}

// RateLimiterConfig throttles outbound vocabulary lookups.
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// CircuitBreakerConfig guards outbound vocabulary calls.
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // e.g. "30s"
}

// MiddlewareConfig groups the outbound call protections.
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Logger     LoggerConfig     `yaml:"logger"`
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Vocab      VocabConfig      `yaml:"vocab"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// Default endpoints for the public vocabulary services.
const (
	DefaultRxNavBaseURL = "https://rxnav.nlm.nih.gov/REST/"
	DefaultICDBaseURL   = "https://id.who.int/"
	DefaultICDTokenURL  = "https://icdaccessmanagement.who.int/connect/token"
	DefaultICDRelease   = "2022-02"
)

// LoadConfig loads and parses the YAML configuration file at path, filling
// in defaults for the public service endpoints.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills empty endpoint fields with the public service URLs.
func (c *AppConfig) ApplyDefaults() {
	if c.Vocab.RxNorm.BaseURL == "" {
		c.Vocab.RxNorm.BaseURL = DefaultRxNavBaseURL
	}
	if c.Vocab.ICD.BaseURL == "" {
		c.Vocab.ICD.BaseURL = DefaultICDBaseURL
	}
	if c.Vocab.ICD.TokenURL == "" {
		c.Vocab.ICD.TokenURL = DefaultICDTokenURL
	}
	if c.Vocab.ICD.Release == "" {
		c.Vocab.ICD.Release = DefaultICDRelease
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
}
