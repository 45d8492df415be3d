package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type SeedConfig struct {
	// File is a JSON dataset; empty means the built-in demo data.
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

type LLMConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Token   string `mapstructure:"token"`
}

type WebConfig struct {
	Dir string `mapstructure:"dir"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Seed   SeedConfig   `mapstructure:"seed"`
	Log    LogConfig    `mapstructure:"log"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Web    WebConfig    `mapstructure:"web"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8100")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.path", "inbox.db")
	v.SetDefault("seed.file", "")
	v.SetDefault("log.development", false)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "http://localhost:11434/v1/")
	v.SetDefault("llm.model", "llama3.1:8b")
	v.SetDefault("llm.token", "")
	v.SetDefault("web.dir", "web")
}

// Load reads configuration from defaults, an optional inbox.yaml (or the
// file named by INBOX_CONFIG) and INBOX_* environment variables, in
// increasing precedence. A .env file in the working directory is loaded
// into the environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("INBOX_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("inbox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("INBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.LLM.Token == "" {
		cfg.LLM.Token = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.LLM.Enabled && c.LLM.BaseURL == "" {
		return errors.New("llm.base_url is required when llm.enabled is set")
	}
	return nil
}
