package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is the build version, set via ldflags.
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// RequestsPerMinute caps title requests per client IP; 0 disables the limit.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetadataConfig holds configuration for the metadata providers.
type MetadataConfig struct {
	TMDB TMDBConfig `mapstructure:"tmdb"`
	OMDB OMDBConfig `mapstructure:"omdb"`

	// MaxConcurrentRatings bounds in-flight aggregations when enriching a list.
	MaxConcurrentRatings int  `mapstructure:"max_concurrent_ratings"`
	Mock                 bool `mapstructure:"mock"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"`
	CastLimit    int    `mapstructure:"cast_limit"`
}

// OMDBConfig holds OMDb API configuration.
type OMDBConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	Timeout           int    `mapstructure:"timeout"`
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
}

// SchedulerConfig holds background task configuration.
type SchedulerConfig struct {
	ProviderHealthCron string `mapstructure:"provider_health_cron"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			AllowedOrigins:    []string{"*"},
			RequestsPerMinute: 120,
		},
		Database: DatabaseConfig{
			Path: "./data/cinescope.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Metadata: MetadataConfig{
			TMDB: TMDBConfig{
				APIKey:       EmbeddedTMDBKey,
				BaseURL:      "https://api.themoviedb.org/3",
				ImageBaseURL: "https://image.tmdb.org/t/p",
				Timeout:      15,
				CastLimit:    10,
			},
			OMDB: OMDBConfig{
				APIKey:            EmbeddedOMDBKey,
				BaseURL:           "https://www.omdbapi.com/",
				Timeout:           10,
				RequestsPerSecond: 5,
			},
			MaxConcurrentRatings: 8,
		},
		Scheduler: SchedulerConfig{
			ProviderHealthCron: "*/15 * * * *",
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables (including .env) > config file > defaults
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cinescope")
	}

	v.SetEnvPrefix("CINESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults mirrors Default so that env-only keys are picked up by AutomaticEnv.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.requests_per_minute", d.Server.RequestsPerMinute)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("metadata.tmdb.api_key", d.Metadata.TMDB.APIKey)
	v.SetDefault("metadata.tmdb.base_url", d.Metadata.TMDB.BaseURL)
	v.SetDefault("metadata.tmdb.image_base_url", d.Metadata.TMDB.ImageBaseURL)
	v.SetDefault("metadata.tmdb.timeout", d.Metadata.TMDB.Timeout)
	v.SetDefault("metadata.tmdb.cast_limit", d.Metadata.TMDB.CastLimit)

	v.SetDefault("metadata.omdb.api_key", d.Metadata.OMDB.APIKey)
	v.SetDefault("metadata.omdb.base_url", d.Metadata.OMDB.BaseURL)
	v.SetDefault("metadata.omdb.timeout", d.Metadata.OMDB.Timeout)
	v.SetDefault("metadata.omdb.requests_per_second", d.Metadata.OMDB.RequestsPerSecond)

	v.SetDefault("metadata.max_concurrent_ratings", d.Metadata.MaxConcurrentRatings)
	v.SetDefault("metadata.mock", d.Metadata.Mock)

	v.SetDefault("scheduler.provider_health_cron", d.Scheduler.ProviderHealthCron)
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Metadata.MaxConcurrentRatings <= 0 {
		return fmt.Errorf("metadata.max_concurrent_ratings must be positive, got %d", c.Metadata.MaxConcurrentRatings)
	}
	if c.Metadata.TMDB.Timeout <= 0 || c.Metadata.OMDB.Timeout <= 0 {
		return errors.New("metadata provider timeouts must be positive")
	}
	if c.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("server.requests_per_minute must not be negative, got %d", c.Server.RequestsPerMinute)
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
