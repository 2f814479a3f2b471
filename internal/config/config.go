package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	AppName = "coursefetch"

	EnvPrefix           = "COURSEFETCH_"
	ConfigFileName      = "config.yml"
	CredentialsFileName = "credentials.json"

	DefaultBaseURL           = "https://members.codewithmosh.com"
	DefaultTimeout           = 60
	DefaultChunkSize         = 4096
	DefaultWorkers           = 1
	DefaultRetryDelay        = 5 * time.Second
	DefaultRequestsPerSecond = 2
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) Level() (slog.Level, error) {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelDebug:
		return slog.LevelDebug, nil
	case LogLevelInfo, "":
		return slog.LevelInfo, nil
	case LogLevelWarn:
		return slog.LevelWarn, nil
	case LogLevelError:
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("unknown log level %q", string(l))
}

type Config struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	CredentialsFile   string        `yaml:"credentials_file" env:"CREDENTIALS_FILE"`
	LectureTemplate   string        `yaml:"lecture_template" env:"LECTURE_TEMPLATE"`
	Timeout           int           `yaml:"timeout" env:"TIMEOUT"` // seconds
	ChunkSize         int           `yaml:"chunk_size" env:"CHUNK_SIZE"`
	NoConfirm         bool          `yaml:"no_confirm" env:"NO_CONFIRM"`
	Workers           int           `yaml:"workers" env:"WORKERS"`
	MaxAttempts       int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"` // 0 retries forever
	RetryDelay        time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	RequestsPerSecond *float64      `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"` // 0 disables the limiter
	RedisURL          string        `yaml:"redis_url" env:"REDIS_URL"` // empty disables the journal
	WriteIndex        bool          `yaml:"write_index" env:"WRITE_INDEX"`
	LogLevel          LogLevel      `yaml:"log_level" env:"LOG_LEVEL"`
}

// Dir is the per-user directory holding the config and credentials files.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot get user config dir: %w", err)
	}

	return filepath.Join(dir, AppName), nil
}

func (c *Config) SetDefaults(dir string) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	if c.CredentialsFile == "" {
		c.CredentialsFile = filepath.Join(dir, CredentialsFileName)
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}

	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}

	if c.RequestsPerSecond == nil {
		rps := float64(DefaultRequestsPerSecond)
		c.RequestsPerSecond = &rps
	}

	if c.LogLevel == "" {
		c.LogLevel = LogLevelWarn
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative"))
	}

	if c.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk_size must not be negative"))
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}

	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max_attempts must not be negative"))
	}

	if c.RequestsPerSecond != nil && *c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative"))
	}

	if _, err := c.LogLevel.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Load builds the config from the YAML file at path, then COURSEFETCH_* environment
// variables. A missing file is fine unless required is set. Unset keys get defaults
// relative to dir.
func Load(afs afero.Fs, path string, required bool, dir string) (*Config, error) {
	cfg := &Config{}

	data, err := afero.ReadFile(afs, path)
	switch {
	case err == nil:
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("cannot parse environment: %w", err)
	}

	cfg.SetDefaults(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding ones already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load %s: %w", path, err)
	}

	return nil
}
