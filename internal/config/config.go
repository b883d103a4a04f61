// Package config loads pantry settings from defaults, config.yaml in the
// configuration directory, a .env file and PANTRY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	// FileName is the config file inside the configuration directory.
	FileName = "config.yaml"

	envPrefix  = "PANTRY"
	dotEnvFile = ".env"
)

// Config keys.
const (
	KeyBaseURL       = "base_url"
	KeySourceFile    = "source_file"
	KeyMaxAttempts   = "max_attempts"
	KeyRetryInterval = "retry_interval"
	KeyThrottle      = "throttle"
	KeyTimeout       = "timeout"
	KeyLogLevel      = "log.level"
	KeyLogFormat     = "log.format"
	KeyMetricsFile   = "metrics_file"
	KeyServeAddr     = "serve.addr"
	KeyServeDataDir  = "serve.data_dir"
)

// Validation errors.
var (
	ErrBaseURLInvalid       = errors.New("base_url must be an http(s) URL")
	ErrSourceFileRequired   = errors.New("source_file is required")
	ErrMaxAttemptsInvalid   = errors.New("max_attempts must be at least 1")
	ErrRetryIntervalInvalid = errors.New("retry_interval must not be negative")
	ErrThrottleInvalid      = errors.New("throttle must not be negative")
	ErrTimeoutInvalid       = errors.New("timeout must be positive")
	ErrLogLevelInvalid      = errors.New("log.level must be one of debug, info, warn, error")
	ErrLogFormatInvalid     = errors.New("log.format must be console or json")
	ErrServeAddrRequired    = errors.New("serve.addr is required")
)

// Config is the resolved pantry configuration.
type Config struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url" validate:"required,http_url"`
	SourceFile    string        `mapstructure:"source_file" yaml:"source_file" validate:"required"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"gte=1"`
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval" validate:"gte=0"`
	Throttle      time.Duration `mapstructure:"throttle" yaml:"throttle" validate:"gte=0"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	Log           LogConfig     `mapstructure:"log" yaml:"log"`
	MetricsFile   string        `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
	Serve         ServeConfig   `mapstructure:"serve" yaml:"serve"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=console json"`
}

// ServeConfig configures the local food-chain service.
type ServeConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:       "http://localhost:8080",
		SourceFile:    "our_groceries.json",
		MaxAttempts:   3,
		RetryInterval: time.Second,
		Throttle:      100 * time.Millisecond,
		Timeout:       30 * time.Second,
		Log:           LogConfig{Level: "info", Format: "console"},
		Serve:         ServeConfig{Addr: ":8080"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeySourceFile, d.SourceFile)
	v.SetDefault(KeyMaxAttempts, d.MaxAttempts)
	v.SetDefault(KeyRetryInterval, d.RetryInterval)
	v.SetDefault(KeyThrottle, d.Throttle)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyMetricsFile, d.MetricsFile)
	v.SetDefault(KeyServeAddr, d.Serve.Addr)
	v.SetDefault(KeyServeDataDir, d.Serve.DataDir)
}

// Load reads the configuration for configDir. A missing config.yaml or .env
// is not an error. Variables already in the environment take precedence over
// .env entries. The result is not validated; call Validate after applying
// flag overrides.
func Load(configDir string) (*Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var validate = validator.New()

// fieldErrors maps a struct namespace to the error reported for it.
var fieldErrors = map[string]error{
	"Config.BaseURL":       ErrBaseURLInvalid,
	"Config.SourceFile":    ErrSourceFileRequired,
	"Config.MaxAttempts":   ErrMaxAttemptsInvalid,
	"Config.RetryInterval": ErrRetryIntervalInvalid,
	"Config.Throttle":      ErrThrottleInvalid,
	"Config.Timeout":       ErrTimeoutInvalid,
	"Config.Log.Level":     ErrLogLevelInvalid,
	"Config.Log.Format":    ErrLogFormatInvalid,
	"Config.Serve.Addr":    ErrServeAddrRequired,
}

// Validate checks the configuration and returns the error of the first
// invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	if sentinel, ok := fieldErrors[fe.StructNamespace()]; ok {
		return fmt.Errorf("%w (got %v)", sentinel, fe.Value())
	}
	return fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag())
}

// WriteFile writes cfg as YAML to configDir/config.yaml, creating the
// directory. An existing file is left untouched and reported with
// written false.
func WriteFile(configDir string, cfg Config) (path string, written bool, err error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", false, fmt.Errorf("create config directory: %w", err)
	}
	path = filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, fmt.Errorf("write config: %w", err)
	}
	return path, true, nil
}
