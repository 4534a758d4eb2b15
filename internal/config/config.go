// Package config loads binary configuration from YAML, .env files and ZSL_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendNone       = "none"
)

// Config is the configuration shared by all binaries.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Metrics MetricsConfig `yaml:"metrics"`
	Engine  EngineConfig  `yaml:"engine"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stderr"`
}

// StorageConfig selects where bars, runs and summaries live.
// CSVPath, when set, is ingested into the bar store before a run.
type StorageConfig struct {
	Runs          string `yaml:"runs" default:"memory" validate:"oneof=memory postgres"`
	Bars          string `yaml:"bars" default:"memory" validate:"oneof=memory clickhouse"`
	Summaries     string `yaml:"summaries" default:"memory" validate:"oneof=memory clickhouse none"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=Runs postgres"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	CSVPath       string `yaml:"csv_path"`
	Migrate       bool   `yaml:"migrate" default:"true"`
}

// RedisConfig configures the run lock. Disabled uses an in-process lock.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host" default:"localhost" validate:"required_if=Enabled true"`
	Port     int           `yaml:"port" default:"6379" validate:"min=1,max=65535"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0"`
	Prefix   string        `yaml:"prefix" default:"zsl:run-lock"`
	LockTTL  time.Duration `yaml:"lock_ttl" default:"10m" validate:"gte=0"`
}

// KafkaConfig configures outcome publishing.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `yaml:"topic" default:"zone-signal-outcomes" validate:"required"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3" validate:"min=1"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// EngineConfig holds engine-wide settings that are not part of a run identity.
type EngineConfig struct {
	TieBreak          string             `yaml:"tie_break" default:"target_first" validate:"oneof=target_first stop_first"`
	DefaultMinGapPips float64            `yaml:"default_min_gap_pips" default:"1" validate:"gte=0"`
	PipSizes          map[string]float64 `yaml:"pip_sizes" validate:"dive,keys,required,endkeys,gt=0"`
}

var validate = validator.New()

// Default returns a Config with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with ZSL_* environment variables.
// envFile is loaded first when present; variables already set win over it.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ZSL_LOG_LEVEL":      &c.Log.Level,
		"ZSL_LOG_FORMAT":     &c.Log.Format,
		"ZSL_RUNS_BACKEND":   &c.Storage.Runs,
		"ZSL_BARS_BACKEND":   &c.Storage.Bars,
		"ZSL_POSTGRES_DSN":   &c.Storage.PostgresDSN,
		"ZSL_CLICKHOUSE_DSN": &c.Storage.ClickHouseDSN,
		"ZSL_BARS_CSV":       &c.Storage.CSVPath,
		"ZSL_REDIS_HOST":     &c.Redis.Host,
		"ZSL_REDIS_PASSWORD": &c.Redis.Password,
		"ZSL_KAFKA_TOPIC":    &c.Kafka.Topic,
		"ZSL_TIE_BREAK":      &c.Engine.TieBreak,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("ZSL_REDIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ZSL_REDIS_PORT: %w", err)
		}
		c.Redis.Port = port
		c.Redis.Enabled = true
	}
	if os.Getenv("ZSL_REDIS_HOST") != "" {
		c.Redis.Enabled = true
	}
	if v := os.Getenv("ZSL_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks struct tags and cross-section requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if (c.Storage.Bars == BackendClickHouse || c.Storage.Summaries == BackendClickHouse) && c.Storage.ClickHouseDSN == "" {
		return errors.New("storage.clickhouse_dsn is required for clickhouse bars or summaries")
	}
	return nil
}
