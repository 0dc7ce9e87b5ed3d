// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int    `mapstructure:"port"`
	BasePath string `mapstructure:"base_path"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Sync struct {
		DetailConcurrency     int `mapstructure:"detail_concurrency"`
		ScheduleCheckInterval int `mapstructure:"schedule_check_interval"` // seconds
	} `mapstructure:"sync"`
	Xtream struct {
		Timeout   int     `mapstructure:"timeout"` // seconds
		RateLimit float64 `mapstructure:"rate_limit"`
		UserAgent string  `mapstructure:"user_agent"`
	} `mapstructure:"xtream"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		SyncPerSecond float64 `mapstructure:"sync_per_second"`
		Burst         int     `mapstructure:"burst"`
	} `mapstructure:"ratelimit"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	// XTREAMSYNC_DATABASE_PATH overrides `database.path`, and so on.
	v.SetEnvPrefix("XTREAMSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.BasePath = normalizeBasePath(cfg.BasePath)

	return &cfg, nil
}

// Default returns the configuration that Load produces without a config
// file or environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling defaults into a known struct cannot fail.
	_ = v.Unmarshal(&cfg)
	cfg.BasePath = normalizeBasePath(cfg.BasePath)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8000)
	v.SetDefault("base_path", "/api")
	v.SetDefault("database.path", "./xtreamsync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("sync.detail_concurrency", 10)
	v.SetDefault("sync.schedule_check_interval", 60)
	v.SetDefault("xtream.timeout", 30)
	v.SetDefault("xtream.rate_limit", 20.0)
	v.SetDefault("xtream.user_agent", "")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("ratelimit.sync_per_second", 2.0)
	v.SetDefault("ratelimit.burst", 5)
}

// normalizeBasePath turns "api", "/api/" and "/api" into "/api".
// An empty value or "/" mounts the routes at the root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
