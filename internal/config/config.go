// Package config defines the application configuration and loads it from
// YAML, the environment, and an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/iwvelando/franchise-forecast/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all configuration for franchise-forecast.
type Config struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Harness HarnessConfig `yaml:"harness" mapstructure:"harness"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json, xlsx, pdf
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`           // sqlite, postgres
	DatabaseURL string `yaml:"databaseUrl" mapstructure:"databaseUrl"` // file path or postgres URL
	MaxConns    int32  `yaml:"maxConns" mapstructure:"maxConns"`
	MinConns    int32  `yaml:"minConns" mapstructure:"minConns"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Address       string  `yaml:"address" mapstructure:"address"`
	MaxUploadSize string  `yaml:"maxUploadSize" mapstructure:"maxUploadSize"`
	RateLimit     float64 `yaml:"rateLimit" mapstructure:"rateLimit"`
	RateBurst     int     `yaml:"rateBurst" mapstructure:"rateBurst"`
}

// HarnessConfig holds defaults for the validation harness.
type HarnessConfig struct {
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
	CurrencyTolerance   int64   `yaml:"currencyTolerance" mapstructure:"currencyTolerance"`
	PercentageTolerance float64 `yaml:"percentageTolerance" mapstructure:"percentageTolerance"`
	MonthsTolerance     int     `yaml:"monthsTolerance" mapstructure:"monthsTolerance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", LogFormatJSON)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("store.driver", constants.StoreDriverSQLite)
	v.SetDefault("store.databaseUrl", constants.DefaultSQLitePath)
	v.SetDefault("store.maxConns", 10)
	v.SetDefault("store.minConns", 2)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", "256K")
	v.SetDefault("server.rateLimit", constants.DefaultRateLimit)
	v.SetDefault("server.rateBurst", constants.DefaultRateBurst)
	v.SetDefault("harness.concurrency", constants.DefaultHarnessConcurrency)
	v.SetDefault("harness.currencyTolerance", constants.DefaultCurrencyTolerance)
	v.SetDefault("harness.percentageTolerance", constants.DefaultPercentageTolerance)
	v.SetDefault("harness.monthsTolerance", constants.DefaultMonthsTolerance)
}

// Load reads configuration from the file at configPath and the environment.
// Environment variables use the FRANCHISE_ prefix with dots replaced by
// underscores, e.g. FRANCHISE_STORE_DRIVER. An empty configPath searches the
// working directory for config.yaml and tolerates its absence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(strings.TrimSuffix(constants.DefaultConfigFile, ".yaml"))
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrapf(err, "config: read file %s", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: load env file %s", path)
	}
	return nil
}
