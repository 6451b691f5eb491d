// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	LLM        LLMConfig        `yaml:"llm"`
	Search     SearchConfig     `yaml:"search_sources"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	RateLimits RateLimitConfig  `yaml:"rate_limits"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, badger, memory
	Path   string `yaml:"path"`   // file for sqlite, directory for badger
}

type CacheConfig struct {
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	MaxKeywords         int           `yaml:"max_keywords"`
	AgentTimeout        time.Duration `yaml:"agent_timeout"`
	ResponseDir         string        `yaml:"response_dir"` // optional verdict archive
}

type LLMConfig struct {
	Provider        string `yaml:"provider"` // openai, azure, ollama
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	AzureEndpoint   string `yaml:"azure_endpoint"`
	AzureDeployment string `yaml:"azure_deployment"`
	OllamaURL       string `yaml:"ollama_url"`
	MaxToolRounds   int    `yaml:"max_tool_rounds"`
	MaxTokens       int    `yaml:"max_tokens"`
}

type SearchConfig struct {
	DuckDuckGo bool         `yaml:"duckduckgo"`
	Serper     SerperConfig `yaml:"serper"`
	MaxResults int          `yaml:"max_results"`
}

type SerperConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	URL     string `yaml:"url"`
}

type FetchConfig struct {
	UserAgent         string        `yaml:"user_agent"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	MaxBytes          int64         `yaml:"max_bytes"`
	RespectRobots     bool          `yaml:"respect_robots"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type SummarizerConfig struct {
	MaxTokensPerBatch int    `yaml:"max_tokens_per_batch"`
	Encoding          string `yaml:"encoding"`
	OutputDir         string `yaml:"output_dir"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/claimradar.db",
		},
		Cache: CacheConfig{
			SimilarityThreshold: 0.7,
			MaxKeywords:         20,
			AgentTimeout:        3 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			MaxToolRounds: 8,
			MaxTokens:     4096,
		},
		Search: SearchConfig{
			DuckDuckGo: true,
			MaxResults: 5,
		},
		Fetch: FetchConfig{
			UserAgent:         "claimradar/1.0 (+https://github.com/factchecker/claimradar)",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
			MaxBytes:          500 * 1024,
			RespectRobots:     true,
			CacheTTL:          30 * time.Minute,
		},
		Summarizer: SummarizerConfig{
			MaxTokensPerBatch: 6000,
			Encoding:          "cl100k_base",
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run generate-config to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML content on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# claimradar configuration

server:
  host: 127.0.0.1
  port: 8000

database:
  driver: sqlite  # sqlite, badger or memory
  path: ./data/claimradar.db
  # driver: badger
  # path: ./data/verifications

cache:
  similarity_threshold: 0.7
  max_keywords: 20
  agent_timeout: 3m
  # response_dir: ./responses

llm:
  provider: openai  # openai, azure, ollama
  model: gpt-4o-mini
  api_key: ${OPENAI_API_KEY}
  max_tool_rounds: 8

  # For a local Ollama server:
  # provider: ollama
  # model: llama3.1
  # ollama_url: http://localhost:11434

search_sources:
  duckduckgo: true
  max_results: 5
  serper:
    enabled: false
    api_key: ${SERPER_API_KEY}

fetch:
  timeout: 15s
  requests_per_second: 1
  burst: 2
  respect_robots: true
  cache_ttl: 30m

summarizer:
  max_tokens_per_batch: 6000
  # output_dir: ./summaries

rate_limits:
  default_requests_per_minute: 60

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite", "badger":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for driver %s", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1]: %v", c.Cache.SimilarityThreshold)
	}
	if c.Cache.MaxKeywords < 1 {
		return fmt.Errorf("max_keywords must be positive: %d", c.Cache.MaxKeywords)
	}
	if c.Cache.AgentTimeout <= 0 {
		return fmt.Errorf("agent_timeout must be positive")
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OpenAI API key is required")
		}
	case "azure":
		if c.LLM.APIKey == "" || c.LLM.AzureEndpoint == "" {
			return fmt.Errorf("Azure OpenAI requires api_key and azure_endpoint")
		}
	case "ollama":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.Search.Serper.Enabled && c.Search.Serper.APIKey == "" {
		return fmt.Errorf("Serper API key is required when serper is enabled")
	}

	if c.Summarizer.MaxTokensPerBatch < 1 {
		return fmt.Errorf("max_tokens_per_batch must be positive")
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if not set
	})
}
