// Package config loads the engine's environment-facing configuration:
// which backend to open and where, the server-side pagination cap, and
// the block size cap. Sources are layered as env > file > defaults, with
// struct-tag validation on the merged result.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/marmos91/deuce/internal/bytesize"
	"github.com/marmos91/deuce/pkg/engine"
)

// MetadataDriverOptions carries driver-specific connection settings.
// Only Path is populated today (sqlite's database file, badger's data
// directory); other drivers ignore it.
type MetadataDriverOptions struct {
	// Path is metadata_driver.options.path: the local backend's database
	// file, or the distributed backend's data directory.
	Path string `mapstructure:"path" yaml:"path"`
}

// MetadataDriverConfig selects and configures the engine.Backend
// implementation to open.
type MetadataDriverConfig struct {
	// Driver names the backend: "sqlite", "badger", or "memory".
	Driver string `mapstructure:"driver" yaml:"driver" validate:"required,oneof=sqlite badger memory"`

	Options MetadataDriverOptions `mapstructure:"options" yaml:"options"`
}

// APIConfiguration carries settings for the (out-of-scope) HTTP surface
// that the engine itself still needs to know about.
type APIConfiguration struct {
	// MaxReturnedNum is api_configuration.max_returned_num: the
	// server-side upper bound on every listing's limit.
	MaxReturnedNum int `mapstructure:"max_returned_num" yaml:"max_returned_num" validate:"required,gt=0"`

	// MaxBlockSize is api_configuration.max_block_size: the largest
	// block RegisterBlock accepts, as a human-readable size ("4Mi",
	// "16MB", plain byte counts). Zero leaves block sizes uncapped.
	MaxBlockSize bytesize.ByteSize `mapstructure:"max_block_size" yaml:"max_block_size"`
}

// MetricsConfig toggles Prometheus instrumentation of Backend operations
// (see pkg/engine/metrics). Disabled by default: metrics collection only
// starts once Enabled is explicitly set.
type MetricsConfig struct {
	// Enabled turns on Backend operation counters/histograms.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Config is Deuce's environment configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (DEUCE_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	MetadataDriver   MetadataDriverConfig `mapstructure:"metadata_driver" yaml:"metadata_driver"`
	APIConfiguration APIConfiguration     `mapstructure:"api_configuration" yaml:"api_configuration"`
	Metrics          MetricsConfig        `mapstructure:"metrics" yaml:"metrics"`
}

// EngineConfig projects the loaded configuration onto engine.Config, the
// narrow shape the core actually consumes.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		MaxReturnNum: c.APIConfiguration.MaxReturnedNum,
		MaxBlockSize: c.APIConfiguration.MaxBlockSize.Int64(),
	}
}

// ApplyDefaults fills in any zero-valued field with Deuce's defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.MetadataDriver.Driver == "" {
		cfg.MetadataDriver.Driver = "sqlite"
	}
	if cfg.MetadataDriver.Options.Path == "" {
		switch cfg.MetadataDriver.Driver {
		case "sqlite":
			cfg.MetadataDriver.Options.Path = "./deuce.db"
		case "badger":
			cfg.MetadataDriver.Options.Path = "./deuce-data"
		}
	}
	if cfg.APIConfiguration.MaxReturnedNum == 0 {
		cfg.APIConfiguration.MaxReturnedNum = 80
	}
}

var validate = validator.New()

// Validate checks cfg against its struct tags, returning the first
// validation failure wrapped with field context.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.MetadataDriver.Driver != "memory" && cfg.MetadataDriver.Options.Path == "" {
		return fmt.Errorf("invalid configuration: metadata_driver.options.path is required for driver %q", cfg.MetadataDriver.Driver)
	}
	return nil
}

// Load reads configuration from configPath (or the default search path
// when empty), environment variables, and defaults, in that precedence
// order, then validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// AutomaticEnv only answers for keys viper already knows about, so
	// bind every key explicitly for env vars to apply without a file.
	for _, key := range []string{
		"metadata_driver.driver",
		"metadata_driver.options.path",
		"api_configuration.max_returned_num",
		"api_configuration.max_block_size",
		"metrics.enabled",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, viper.DecodeHook(byteSizeDecodeHook())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("DEUCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(".")
	v.SetConfigName("deuce")
	v.SetConfigType("yaml")
}

// byteSizeDecodeHook converts config-file strings and numbers to
// bytesize.ByteSize, so max_block_size can be written as "4Mi", "16MB",
// or a plain byte count.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	err := v.ReadInConfig()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return false, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("config: read %s: %w", filepath.Clean(v.ConfigFileUsed()), err)
}
