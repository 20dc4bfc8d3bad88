// Package config defines the data structures related to configuration and
// includes functions for loading, normalizing and validating the config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/exit-valuation/internal/api"
	"github.com/iwvelando/exit-valuation/internal/cashflow"
	"github.com/iwvelando/exit-valuation/internal/valuation"
	"github.com/iwvelando/exit-valuation/pkg/configprocessor"
	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/iwvelando/exit-valuation/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for exit-valuation.
type Configuration struct {
	Logging LoggingConfig       `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig        `yaml:"output,omitempty" mapstructure:"output"`
	Engine  EngineConfig        `yaml:"engine,omitempty" mapstructure:"engine"`
	Storage StorageConfig       `yaml:"storage,omitempty" mapstructure:"storage"`
	Request api.EvaluateRequest `yaml:"request,omitempty" mapstructure:"request"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, json, yaml, csv
	Mode   string `yaml:"mode,omitempty" mapstructure:"mode"`     // valuation, cashflow, deals, all
}

// EngineConfig overrides the compiled-in calibration of the engines.
type EngineConfig struct {
	Valuation valuation.Params     `yaml:"valuation,omitempty" mapstructure:"valuation"`
	Cashflow  cashflow.Assumptions `yaml:"cashflow,omitempty" mapstructure:"cashflow"`
}

// StorageConfig selects where runs are kept.
type StorageConfig struct {
	Driver      string `yaml:"driver,omitempty" mapstructure:"driver"` // memory, postgres
	DatabaseURL string `yaml:"databaseUrl,omitempty" mapstructure:"databaseUrl"`
	RedisAddr   string `yaml:"redisAddr,omitempty" mapstructure:"redisAddr"`
	CacheTTL    int    `yaml:"cacheTtl,omitempty" mapstructure:"cacheTtl"` // seconds
}

// CacheTTLDuration returns the cache TTL as a duration.
func (s StorageConfig) CacheTTLDuration() time.Duration {
	return time.Duration(s.CacheTTL) * time.Second
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Any key can be overridden from the environment with
// the EXIT_VALUATION_ prefix, e.g. EXIT_VALUATION_STORAGE_DRIVER.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.mode", constants.ModeAll)
	v.SetDefault("storage.driver", constants.StorageDriverMemory)
	v.SetDefault("storage.cacheTtl", constants.DefaultCacheTTLSeconds)

	// The conventional unprefixed names are honoured as well.
	_ = v.BindEnv("storage.databaseUrl", constants.EnvPrefix+"_STORAGE_DATABASEURL", "DATABASE_URL")
	_ = v.BindEnv("storage.redisAddr", constants.EnvPrefix+"_STORAGE_REDISADDR", "REDIS_ADDR")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()
	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &configuration, nil
}

// Normalize ensures defaults and canonical values are applied before validation.
func (c *Configuration) Normalize() {
	if c == nil {
		return
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	if c.Output.Mode == "" {
		c.Output.Mode = constants.ModeAll
	}

	c.Engine.Valuation.Normalize()
	c.Engine.Cashflow.Normalize()

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = constants.StorageDriverMemory
	}
	c.Storage.DatabaseURL = strings.TrimSpace(c.Storage.DatabaseURL)
	c.Storage.RedisAddr = strings.TrimSpace(c.Storage.RedisAddr)

	c.Request.Basis = strings.ToLower(strings.TrimSpace(c.Request.Basis))
}

// Validate returns an error when the configuration cannot be used. The
// request itself is validated when it is evaluated.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	var errs []error
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateMode(c.Output.Mode); err != nil {
		errs = append(errs, err)
	}
	if err := c.Engine.Valuation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine.valuation: %w", err))
	}
	if err := c.Engine.Cashflow.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine.cashflow: %w", err))
	}

	switch c.Storage.Driver {
	case constants.StorageDriverMemory:
	case constants.StorageDriverPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("storage driver %q requires storage.databaseUrl or DATABASE_URL", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage driver %q is not supported", c.Storage.Driver))
	}
	if c.Storage.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("storage.cacheTtl %d must not be negative", c.Storage.CacheTTL))
	}

	return errors.Join(errs...)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	storage := configprocessor.StorageInfo{
		Driver:      c.Storage.Driver,
		DatabaseURL: c.Storage.DatabaseURL,
		RedisAddr:   c.Storage.RedisAddr,
		CacheTTL:    c.Storage.CacheTTL,
	}
	request := configprocessor.RequestInfo{
		HasProfile:  c.Request.Profile != (api.ProfileRequest{}),
		HasCashflow: c.Request.Cashflow != nil,
		HasDeals:    c.Request.Deals != nil,
		Basis:       c.Request.Basis,
	}

	processor := configprocessor.NewProcessor()
	return processor.ValidateConfiguration(c.Output.Mode, c.Output.Format, storage, request)
}
