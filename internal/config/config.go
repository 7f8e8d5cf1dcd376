package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulexconde/surveyengine/internal/pkg/logging"
	"github.com/paulexconde/surveyengine/internal/pkg/store"
	"github.com/paulexconde/surveyengine/internal/services"
	"gopkg.in/yaml.v2"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_DATABASE_URL = "DATABASE_URL"
	ENV_REDIS_URL    = "REDIS_URL"
	ENV_HTTP_ADDR    = "HTTP_ADDR"
)

type Config struct {
	Logging logging.Config `yaml:"logging"`

	HTTP struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"http"`

	Database store.DatabaseConfig `yaml:"database"`

	// Draft scratch storage. An empty url keeps drafts in memory.
	Redis struct {
		URL      string        `yaml:"url"`
		DraftTTL time.Duration `yaml:"draft_ttl"`
	} `yaml:"redis"`

	Limits services.Limits `yaml:"limits"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"workers"`
}

func Default() Config {
	var c Config
	c.Logging.LogLevel = "info"
	c.HTTP.Addr = ":8080"
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.Database.MaxOpenConns = 10
	c.Database.MaxIdleConns = 5
	c.Database.ConnMaxLifetime = 30 * time.Minute
	c.Redis.DraftTTL = 24 * time.Hour
	c.Limits = services.DefaultLimits()
	c.Workers.Count = 2
	c.Workers.QueueSize = 64
	return c
}

// Load reads the YAML file named by CONFIG_FILE_PATH over the defaults and
// applies the environment overrides. A .env file in the working directory is
// loaded first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env", slog.Any("error", err))
	}

	conf := Default()

	if path := os.Getenv(ENV_CONFIG_FILE_PATH); path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return conf, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(yamlFile, &conf); err != nil {
			return conf, err
		}
	}

	secretsOverride(&conf)
	return conf, nil
}

// Parse decodes YAML into conf, rejecting unknown keys.
func Parse(data []byte, conf *Config) error {
	if err := yaml.UnmarshalStrict(data, conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func secretsOverride(conf *Config) {
	if url := os.Getenv(ENV_DATABASE_URL); url != "" {
		conf.Database.URL = url
	}

	if url := os.Getenv(ENV_REDIS_URL); url != "" {
		conf.Redis.URL = url
	}

	if addr := os.Getenv(ENV_HTTP_ADDR); addr != "" {
		conf.HTTP.Addr = addr
	}
}
