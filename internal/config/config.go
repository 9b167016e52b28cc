package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	CounterBackendFile   = "file"
	CounterBackendRedis  = "redis"
	CounterBackendMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AI      AIConfig      `yaml:"ai"`
	Styles  StylesConfig  `yaml:"styles"`
	Counter CounterConfig `yaml:"counter"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxPortAttempts int           `yaml:"max_port_attempts"`
	StaticDir       string        `yaml:"static_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AIConfig struct {
	Provider string       `yaml:"provider"`
	Gemini   GeminiConfig `yaml:"gemini"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

type GeminiConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type OpenAIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type StylesConfig struct {
	File string `yaml:"file"`
}

type CounterConfig struct {
	Backend   string      `yaml:"backend"`
	File      string      `yaml:"file"`
	Threshold int         `yaml:"threshold"`
	Redis     RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Key      string `yaml:"key"`
}

type HistoryConfig struct {
	Enabled bool        `yaml:"enabled"`
	Driver  string      `yaml:"driver"` // "sqlite" or "mysql"
	DSN     string      `yaml:"dsn"`
	MySQL   MySQLConfig `yaml:"mysql"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			MaxPortAttempts: 10,
			StaticDir:       ".",
			ShutdownTimeout: 10 * time.Second,
		},
		AI: AIConfig{
			Provider: ProviderGemini,
			Gemini: GeminiConfig{
				BaseURL: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-2.5-flash-preview-05-20",
				Timeout: 120 * time.Second,
			},
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
				Timeout: 120 * time.Second,
			},
		},
		Styles: StylesConfig{File: "styles.json"},
		Counter: CounterConfig{
			Backend:   CounterBackendFile,
			File:      "key/api_failure_count.txt",
			Threshold: 3,
			Redis: RedisConfig{
				Host: "localhost",
				Port: 6379,
				Key:  "prompt-forge:api_failure_count",
			},
		},
		History: HistoryConfig{
			Driver: "sqlite",
			DSN:    "data/history.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	return cfg, nil
}

// applyEnv applies environment variable overrides for secrets.
func (c *Config) applyEnv() {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.AI.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.AI.OpenAI.APIKey = apiKey
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Counter.Redis.Password = password
	}
	if dsn := os.Getenv("HISTORY_DSN"); dsn != "" {
		c.History.DSN = dsn
	}
}

// fillDefaults restores defaults a partial config file zeroed out.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.MaxPortAttempts <= 0 {
		c.Server.MaxPortAttempts = def.Server.MaxPortAttempts
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = def.Server.StaticDir
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if c.AI.Gemini.BaseURL == "" {
		c.AI.Gemini.BaseURL = def.AI.Gemini.BaseURL
	}
	if c.AI.Gemini.Model == "" {
		c.AI.Gemini.Model = def.AI.Gemini.Model
	}
	if c.AI.Gemini.Timeout == 0 {
		c.AI.Gemini.Timeout = def.AI.Gemini.Timeout
	}
	if c.AI.OpenAI.BaseURL == "" {
		c.AI.OpenAI.BaseURL = def.AI.OpenAI.BaseURL
	}
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = def.AI.OpenAI.Model
	}
	if c.AI.OpenAI.Timeout == 0 {
		c.AI.OpenAI.Timeout = def.AI.OpenAI.Timeout
	}
	if c.Counter.Backend == "" {
		c.Counter.Backend = def.Counter.Backend
	}
	if c.Counter.File == "" {
		c.Counter.File = def.Counter.File
	}
	if c.Counter.Threshold <= 0 {
		c.Counter.Threshold = def.Counter.Threshold
	}
	if c.Counter.Redis.Key == "" {
		c.Counter.Redis.Key = def.Counter.Redis.Key
	}
	if c.History.Driver == "" {
		c.History.Driver = def.History.Driver
	}
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.AI.Provider == ProviderOpenAI {
		return c.AI.OpenAI.APIKey
	}
	return c.AI.Gemini.APIKey
}
