// Package config loads and validates classifier configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Data, Classifier, Logging, Metrics, Redis, Postgres, Kafka).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// DataConfig holds the locations of every input and output file.
type DataConfig struct {
	VocabPath           string `yaml:"vocabPath"`
	CategoryVectorsPath string `yaml:"categoryVectorsPath"`
	GroundTruthPath     string `yaml:"groundTruthPath"`
	TitlesDir           string `yaml:"titlesDir"`
	OutputDir           string `yaml:"outputDir"`
}

// ClassifierConfig controls the n-gram range and ranking limits.
type ClassifierConfig struct {
	MinNGram             int  `yaml:"minNGram"`
	MaxNGram             int  `yaml:"maxNGram"`
	TopK                 int  `yaml:"topK"`
	MaxTitles            int  `yaml:"maxTitles"`
	NormalizeFrequencies bool `yaml:"normalizeFrequencies"`
	WriteSummary         bool `yaml:"writeSummary"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server and textfile export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"`
	Textfile string `yaml:"textfile"`
}

// RedisConfig holds Redis connection and title-caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters for the run store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Classifications string `yaml:"classifications"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			VocabPath:           "data/vocab_file.txt",
			CategoryVectorsPath: "data/category_vectors.txt",
			GroundTruthPath:     "ground_truth.txt",
			TitlesDir:           ".",
			OutputDir:           ".",
		},
		Classifier: ClassifierConfig{
			MinNGram:     2,
			MaxNGram:     7,
			TopK:         3,
			MaxTitles:    5,
			WriteSummary: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
			CacheTTL: time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "ngramclassifier",
			User:            "ngramclassifier",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				Classifications: "query-classifications",
			},
		},
	}
}

// applyEnvOverrides reads NC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NC_VOCAB_PATH"); v != "" {
		cfg.Data.VocabPath = v
	}
	if v := os.Getenv("NC_CATEGORY_VECTORS_PATH"); v != "" {
		cfg.Data.CategoryVectorsPath = v
	}
	if v := os.Getenv("NC_GROUND_TRUTH_PATH"); v != "" {
		cfg.Data.GroundTruthPath = v
	}
	if v := os.Getenv("NC_TITLES_DIR"); v != "" {
		cfg.Data.TitlesDir = v
	}
	if v := os.Getenv("NC_OUTPUT_DIR"); v != "" {
		cfg.Data.OutputDir = v
	}
	if v := os.Getenv("NC_MIN_NGRAM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Classifier.MinNGram = n
		}
	}
	if v := os.Getenv("NC_MAX_NGRAM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Classifier.MaxNGram = n
		}
	}
	if v := os.Getenv("NC_NORMALIZE_FREQUENCIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Classifier.NormalizeFrequencies = b
		}
	}
	if v := os.Getenv("NC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NC_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("NC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("NC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("NC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("NC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}
