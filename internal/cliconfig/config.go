package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Subcommands validated by Config.Validate.
const (
	CommandGenerate = "generate"
	CommandSign     = "sign"
	CommandSubmit   = "submit"
	CommandCollect  = "collect"
)

// Config holds CLI configuration for claimdrop.
type Config struct {
	Network    string
	HorizonURL string
	Asset      string

	DistributionPublic string
	DistributionSecret string
	CollectorPublic    string
	CollectorSecret    string
	SignerSecret       string

	BaseAmount string
	StartDate  string
	EndDate    string

	AccountsFile string
	XDRFile      string
	OutputDir    string
	Watch        string

	StartOffset int
	PageSize    int
	Resume      bool

	PollInterval      time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	FetchAttempts     int

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Network:           "testnet",
		OutputDir:         ".",
		PageSize:          100,
		PollInterval:      5 * time.Second,
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 10,
		FetchAttempts:     3,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Validate checks the settings the given subcommand needs. Every failure
// wraps domain.ErrInvalidConfig and is reported before any network call.
func (c *Config) Validate(command string) error {
	if _, err := c.NetworkProfile(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return configError("log-format", "%q is not one of console, json", c.LogFormat)
	}
	if c.RequestTimeout <= 0 {
		return configError("request-timeout", "must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return configError("requests-per-second", "must not be negative")
	}

	switch command {
	case CommandGenerate:
		if c.AccountsFile == "" {
			return configError("accounts-file", "is required")
		}
		if c.OutputDir == "" {
			return configError("output-dir", "is required")
		}
		_, err := c.GeneratorConfig()
		return err
	case CommandSign:
		if c.XDRFile == "" {
			return configError("xdr-file", "is required")
		}
		_, err := c.SignerKey()
		return err
	case CommandSubmit:
		if c.XDRFile == "" && c.Watch == "" {
			return configError("xdr-file", "is required unless --watch is set")
		}
		_, err := c.SubmitterConfig()
		return err
	case CommandCollect:
		_, err := c.CollectorConfig()
		return err
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	for _, s := range []*string{&c.DistributionSecret, &c.CollectorSecret, &c.SignerSecret} {
		if *s != "" {
			*s = "*****"
		}
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	value = strings.TrimSpace(value)
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setBool sets a bool value if true and flag not changed.
func (s *configSetter) setBool(flag string, value bool, dst *bool) {
	if !value || s.changed[flag] {
		return
	}
	*dst = value
}

// setBoolFromString parses a string to bool and sets the destination if valid.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f < 0 {
		return nil
	}
	*dst = f
	return nil
}
