package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Data        DataConfig        `yaml:"data" envconfig:"DATA"`
	Correlation CorrelationConfig `yaml:"correlation" envconfig:"CORRELATION"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/leetlens.log"`
}

// DataConfig contains the data root and ingestion configuration.
type DataConfig struct {
	Root             string `yaml:"root" envconfig:"ROOT" default:"data/companies" validate:"required"`
	CacheDir         string `yaml:"cache_dir" envconfig:"CACHE_DIR" default:"data/cache" validate:"required"`
	MetadataFile     string `yaml:"metadata_file" envconfig:"METADATA_FILE"`
	LoaderWorkers    int    `yaml:"loader_workers" envconfig:"LOADER_WORKERS" default:"8" validate:"min=1"`
	MemoryCacheSize  int    `yaml:"memory_cache_size" envconfig:"MEMORY_CACHE_SIZE" default:"16" validate:"min=1"`
}

// CorrelationConfig carries the tunable constants of the correlation engine.
// The trimming and weight defaults are empirically chosen and deliberately
// exposed as plain configuration.
type CorrelationConfig struct {
	TopicTrimHead    int     `yaml:"topic_trim_head" envconfig:"TOPIC_TRIM_HEAD" default:"5" validate:"min=0"`
	TopicTrimTail    int     `yaml:"topic_trim_tail" envconfig:"TOPIC_TRIM_TAIL" default:"5" validate:"min=0"`
	TopTopics        int     `yaml:"top_topics" envconfig:"TOP_TOPICS" default:"10" validate:"min=1"`
	TopicWeight      float64 `yaml:"topic_weight" envconfig:"TOPIC_WEIGHT" default:"0.5" validate:"min=0"`
	DifficultyWeight float64 `yaml:"difficulty_weight" envconfig:"DIFFICULTY_WEIGHT" default:"0.2" validate:"min=0"`
	AcceptanceWeight float64 `yaml:"acceptance_weight" envconfig:"ACCEPTANCE_WEIGHT" default:"0.15" validate:"min=0"`
	FeedbackWeight   float64 `yaml:"feedback_weight" envconfig:"FEEDBACK_WEIGHT" default:"0.15" validate:"min=0"`
}

// Load loads configuration from environment variables layered over an
// optional YAML file, then validates the result.
func Load() (*Config, error) {
	var cfg Config

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Environment variables take precedence over file values.
	if err := envconfig.Process("LEETLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	totalWeight := c.Correlation.TopicWeight + c.Correlation.DifficultyWeight +
		c.Correlation.AcceptanceWeight + c.Correlation.FeedbackWeight
	if totalWeight <= 0 {
		return fmt.Errorf("correlation block weights must sum to a positive value, got %v", totalWeight)
	}
	return nil
}

// configFilePath returns the first config file found in the common locations.
func configFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration without consulting the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  25,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/leetlens.log",
		},
		Data: DataConfig{
			Root:            "data/companies",
			CacheDir:        "data/cache",
			LoaderWorkers:   8,
			MemoryCacheSize: 16,
		},
		Correlation: CorrelationConfig{
			TopicTrimHead:    5,
			TopicTrimTail:    5,
			TopTopics:        10,
			TopicWeight:      0.5,
			DifficultyWeight: 0.2,
			AcceptanceWeight: 0.15,
			FeedbackWeight:   0.15,
		},
	}
}
