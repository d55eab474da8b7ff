package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Network            string  `toml:"network"`
	HorizonURL         string  `toml:"horizon_url"`
	Asset              string  `toml:"asset"`
	DistributionPublic string  `toml:"distribution_public"`
	DistributionSecret string  `toml:"distribution_secret"`
	CollectorPublic    string  `toml:"collector_public"`
	CollectorSecret    string  `toml:"collector_secret"`
	SignerSecret       string  `toml:"signer_secret"`
	BaseAmount         string  `toml:"base_amount"`
	StartDate          string  `toml:"start_date"`
	EndDate            string  `toml:"end_date"`
	AccountsFile       string  `toml:"accounts_file"`
	XDRFile            string  `toml:"xdr_file"`
	OutputDir          string  `toml:"output_dir"`
	Watch              string  `toml:"watch"`
	StartOffset        int     `toml:"start_offset"`
	PageSize           int     `toml:"page_size"`
	Resume             bool    `toml:"resume"`
	PollInterval       string  `toml:"poll_interval"`
	RequestTimeout     string  `toml:"request_timeout"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	MaxRetries         int     `toml:"max_retries"`
	FetchAttempts      int     `toml:"fetch_attempts"`
	MetricsAddr        string  `toml:"metrics_addr"`
	LogLevel           string  `toml:"log_level"`
	LogFormat          string  `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.claimdrop/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".claimdrop", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("network", fc.Network, &cfg.Network)
	s.setString("horizon-url", fc.HorizonURL, &cfg.HorizonURL)
	s.setString("asset", fc.Asset, &cfg.Asset)
	s.setString("distribution-public", fc.DistributionPublic, &cfg.DistributionPublic)
	s.setString("distribution-secret", fc.DistributionSecret, &cfg.DistributionSecret)
	s.setString("collector-public", fc.CollectorPublic, &cfg.CollectorPublic)
	s.setString("collector-secret", fc.CollectorSecret, &cfg.CollectorSecret)
	s.setString("signer-secret", fc.SignerSecret, &cfg.SignerSecret)
	s.setString("base-amount", fc.BaseAmount, &cfg.BaseAmount)
	s.setString("start-date", fc.StartDate, &cfg.StartDate)
	s.setString("end-date", fc.EndDate, &cfg.EndDate)
	s.setString("accounts-file", fc.AccountsFile, &cfg.AccountsFile)
	s.setString("xdr-file", fc.XDRFile, &cfg.XDRFile)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("watch", fc.Watch, &cfg.Watch)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	if err := s.setDuration("poll-interval", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("request-timeout", fc.RequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}

	s.setFloat("requests-per-second", fc.RequestsPerSecond, &cfg.RequestsPerSecond)

	s.setInt("start-offset", fc.StartOffset, &cfg.StartOffset)
	s.setInt("page-size", fc.PageSize, &cfg.PageSize)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setInt("fetch-attempts", fc.FetchAttempts, &cfg.FetchAttempts)
	s.setBool("resume", fc.Resume, &cfg.Resume)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
