package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the nichescope API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Cache   CacheConfig   `yaml:"cache"`
	YouTube YouTubeConfig `yaml:"youtube"`
	SerpAPI SerpAPIConfig `yaml:"serpapi"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Quota   QuotaConfig   `yaml:"quota"`
	Retry   RetryConfig   `yaml:"retry"`
	Search  SearchConfig  `yaml:"search"`
	Tags    TagsConfig    `yaml:"tags"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds cache store settings.
type CacheConfig struct {
	Driver     string   `yaml:"driver"` // sqlite, redis (default: sqlite)
	Path       string   `yaml:"path"`   // sqlite database file
	Addrs      []string `yaml:"addrs"`  // redis addresses
	Password   string   `yaml:"password"`
	MaxRecords int      `yaml:"max_records"` // eviction ceiling
}

// YouTubeConfig holds search provider settings.
type YouTubeConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SerpAPIConfig holds volume estimator settings. An empty api_key selects
// the local heuristic estimator.
type SerpAPIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig holds strategy generator settings. An empty api_key selects
// the rule-based fallback strategist.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// QuotaConfig holds the request-unit budget settings.
type QuotaConfig struct {
	DailyUnitLimit int64  `yaml:"daily_unit_limit"` // 0 = unlimited
	Action         string `yaml:"action"`           // "reject" | "warn" (default)
}

// RetryConfig holds backoff executor settings.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
}

// SearchConfig holds search aggregation settings.
type SearchConfig struct {
	MaxResultsCeiling int `yaml:"max_results_ceiling"`
	PageSize          int `yaml:"page_size"`
	ChunkSize         int `yaml:"chunk_size"` // batch size for detail/enrichment calls
}

// TagsConfig holds multi-keyword analysis settings.
type TagsConfig struct {
	Concurrency  int `yaml:"concurrency"`
	MinSpacingMs int `yaml:"min_spacing_ms"` // minimum spacing between remote dispatches
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Analysis requests paginate a remote API; give them room.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "sqlite"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/cache.db"
	}
	if c.Cache.MaxRecords <= 0 {
		c.Cache.MaxRecords = 1000
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.YouTube.TimeoutSec <= 0 {
		c.YouTube.TimeoutSec = 30
	}
	if c.SerpAPI.BaseURL == "" {
		c.SerpAPI.BaseURL = "https://serpapi.com/search"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Quota.DailyUnitLimit == 0 {
		c.Quota.DailyUnitLimit = 10000
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMs <= 0 {
		c.Retry.BaseDelayMs = 100
	}
	if c.Search.MaxResultsCeiling <= 0 {
		c.Search.MaxResultsCeiling = 500
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 50
	}
	if c.Search.ChunkSize <= 0 {
		c.Search.ChunkSize = 50
	}
	if c.Tags.Concurrency <= 0 {
		c.Tags.Concurrency = 2
	}
	if c.Tags.MinSpacingMs <= 0 {
		c.Tags.MinSpacingMs = 700
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "sqlite":
		// path has a default
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"sqlite\" or \"redis\", got %q", c.Cache.Driver)
	}
	switch c.Quota.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("quota.action must be \"warn\" or \"reject\", got %q", c.Quota.Action)
	}
	if c.Search.PageSize > 50 {
		return fmt.Errorf("search.page_size must not exceed the provider limit of 50, got %d", c.Search.PageSize)
	}
	if c.Search.ChunkSize > 50 {
		return fmt.Errorf("search.chunk_size must not exceed the provider limit of 50, got %d", c.Search.ChunkSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
