// Package config loads learnsnap configuration from a YAML file, LEARNSNAP_* environment
// variables and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"learnsnap/internal/domain"
)

type Config struct {
	Data        DataConfig        `mapstructure:"data"`
	Server      ServerConfig      `mapstructure:"server"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Translation TranslationConfig `mapstructure:"translation"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Export      ExportConfig      `mapstructure:"export"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type DataConfig struct {
	Dir    string `mapstructure:"dir"`
	DBPath string `mapstructure:"db_path"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TransportConfig struct {
	// RequestTimeout bounds requests made through a transport client. Zero disables it.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type CaptureConfig struct {
	// Mode selects how tabs load pages: fetch, headless or static.
	Mode         string        `mapstructure:"mode"`
	PageTimeout  time.Duration `mapstructure:"page_timeout"`
	ImageTimeout time.Duration `mapstructure:"image_timeout"`
	ChromePath   string        `mapstructure:"chrome_path"`
}

type ProviderConfig struct {
	Type          string  `mapstructure:"type"`
	Name          string  `mapstructure:"name"`
	BaseURL       string  `mapstructure:"base_url"`
	Model         string  `mapstructure:"model"`
	Temperature   float64 `mapstructure:"temperature"`
	APIKeySetting string  `mapstructure:"api_key_setting"`
}

func (p ProviderConfig) Domain() domain.Provider {
	return domain.Provider{
		Type:          p.Type,
		Name:          p.Name,
		BaseURL:       p.BaseURL,
		Model:         p.Model,
		Temperature:   p.Temperature,
		APIKeySetting: p.APIKeySetting,
	}
}

type TranslationConfig struct {
	DefaultProvider string           `mapstructure:"default_provider"`
	Timeout         time.Duration    `mapstructure:"timeout"`
	Providers       []ProviderConfig `mapstructure:"providers"`
}

type CacheConfig struct {
	// Backend is sqlite or redis.
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`
	// LRUSize is the in-process front cache size; zero disables it.
	LRUSize int `mapstructure:"lru_size"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("learnsnap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/learnsnap")
	}

	v.SetEnvPrefix("LEARNSNAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Data.DBPath == "" {
		cfg.Data.DBPath = filepath.Join(cfg.Data.Dir, "learnsnap.db")
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = filepath.Join(cfg.Data.Dir, "exports")
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("data.db_path", "")

	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("transport.request_timeout", 2*time.Minute)

	v.SetDefault("capture.mode", "fetch")
	v.SetDefault("capture.page_timeout", 45*time.Second)
	v.SetDefault("capture.image_timeout", 15*time.Second)
	v.SetDefault("capture.chrome_path", "")

	v.SetDefault("translation.default_provider", "ollama")
	v.SetDefault("translation.timeout", 60*time.Second)
	v.SetDefault("translation.providers", []map[string]any{
		{"type": "ollama"},
		{"type": "openai"},
	})

	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_ttl", time.Duration(0))
	v.SetDefault("cache.lru_size", 1024)

	v.SetDefault("export.dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "learnsnap")
	}
	return ".learnsnap"
}

func validate(cfg *Config) error {
	switch cfg.Capture.Mode {
	case "fetch", "headless", "static":
	default:
		return fmt.Errorf("capture.mode must be fetch, headless or static, got %q", cfg.Capture.Mode)
	}
	switch cfg.Cache.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("cache.backend must be sqlite or redis, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.LRUSize < 0 {
		return fmt.Errorf("cache.lru_size must not be negative")
	}
	names := map[string]bool{}
	for _, p := range cfg.Translation.Providers {
		d := p.Domain()
		if names[d.RegistryName()] {
			return fmt.Errorf("duplicate translation provider %q", d.RegistryName())
		}
		names[d.RegistryName()] = true
	}
	if cfg.Translation.DefaultProvider != "" && !names[cfg.Translation.DefaultProvider] {
		return fmt.Errorf("translation.default_provider %q is not configured", cfg.Translation.DefaultProvider)
	}
	return nil
}

// Providers returns the configured providers as domain records.
func (c *Config) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(c.Translation.Providers))
	for _, p := range c.Translation.Providers {
		out = append(out, p.Domain())
	}
	return out
}
