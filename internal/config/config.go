// Package config provides Viper-based configuration management for agrolens
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/ingest"
	"github.com/spektr-org/agrolens/internal/logging"
)

// Config represents the complete agrolens configuration
type Config struct {
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Logging    logging.Config   `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Data       DataConfig       `mapstructure:"data"`
	Engine     EngineConfig     `mapstructure:"engine"`
}

// ThresholdsConfig holds the trend classifier cut-offs
type ThresholdsConfig struct {
	Volatile float64 `mapstructure:"volatile" validate:"gt=0"`
	Rising   float64 `mapstructure:"rising" validate:"gte=0"`
	Falling  float64 `mapstructure:"falling" validate:"lte=0"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	MaxComparisons  int           `mapstructure:"max_comparisons" validate:"gte=1"`
}

// CacheConfig contains bundle cache settings
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size" validate:"gte=0"`
}

// DataConfig says where observations come from. Files are read in order;
// with no files the simulator supplies data.
type DataConfig struct {
	Files    []string               `mapstructure:"files"`
	Sheet    string                 `mapstructure:"sheet"`
	Simulate ingest.SimulateOptions `mapstructure:"simulate"`
}

// EngineConfig contains pipeline settings
type EngineConfig struct {
	Workers int `mapstructure:"workers" validate:"gte=0"`
}

// Load reads configuration from file and environment variables. An empty
// cfgFile searches ./.agrolens.yaml and $HOME/.config/agrolens.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".agrolens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/agrolens")
	}

	// AGROLENS_THRESHOLDS_VOLATILE overrides thresholds.volatile
	v.SetEnvPrefix("AGROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("thresholds.volatile", engine.DefaultVolatileCoV)
	v.SetDefault("thresholds.rising", engine.DefaultRisingPercent)
	v.SetDefault("thresholds.falling", engine.DefaultFallingPercent)

	log := logging.DefaultConfig()
	v.SetDefault("logging.level", log.Level)
	v.SetDefault("logging.format", log.Format)
	v.SetDefault("logging.output", log.Output)
	v.SetDefault("logging.development", log.Development)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_comparisons", 20)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 256)

	sim := ingest.DefaultSimulateOptions()
	v.SetDefault("data.files", []string{})
	v.SetDefault("data.sheet", "")
	v.SetDefault("data.simulate.seed", sim.Seed)
	v.SetDefault("data.simulate.domain", sim.Domain)
	v.SetDefault("data.simulate.metric", sim.Metric)
	v.SetDefault("data.simulate.unit", sim.Unit)
	v.SetDefault("data.simulate.commodities", sim.Commodities)
	v.SetDefault("data.simulate.countries", sim.Countries)
	v.SetDefault("data.simulate.year_start", sim.YearStart)
	v.SetDefault("data.simulate.year_end", sim.YearEnd)
	v.SetDefault("data.simulate.base", sim.Base)
	v.SetDefault("data.simulate.growth", sim.Growth)
	v.SetDefault("data.simulate.noise", sim.Noise)

	v.SetDefault("engine.workers", 0)
}

var validate = validator.New()

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be console or json)", c.Logging.Format)
	}
	return nil
}

// EngineThresholds converts the thresholds section for the classifier.
func (c *Config) EngineThresholds() engine.Thresholds {
	return engine.Thresholds{
		Volatile: c.Thresholds.Volatile,
		Rising:   c.Thresholds.Rising,
		Falling:  c.Thresholds.Falling,
	}
}

// EngineOptions returns the pipeline options implied by the configuration.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithThresholds(c.EngineThresholds()),
		engine.WithWorkers(c.Engine.Workers),
	}
}
