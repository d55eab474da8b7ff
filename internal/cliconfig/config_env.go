package cliconfig

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable claimdrop reads.
const EnvPrefix = "CLAIMDROP_"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnvConfig applies CLAIMDROP_* environment variables to cfg.
// These override file config but are overridden by flags (checked via changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("network", env("NETWORK"), &cfg.Network)
	s.setString("horizon-url", env("HORIZON_URL"), &cfg.HorizonURL)
	s.setString("asset", env("ASSET"), &cfg.Asset)
	s.setString("distribution-public", env("DISTRIBUTION_PUBLIC"), &cfg.DistributionPublic)
	s.setString("distribution-secret", env("DISTRIBUTION_SECRET"), &cfg.DistributionSecret)
	s.setString("collector-public", env("COLLECTOR_PUBLIC"), &cfg.CollectorPublic)
	s.setString("collector-secret", env("COLLECTOR_SECRET"), &cfg.CollectorSecret)
	s.setString("signer-secret", env("SIGNER_SECRET"), &cfg.SignerSecret)
	s.setString("base-amount", env("BASE_AMOUNT"), &cfg.BaseAmount)
	s.setString("start-date", env("START_DATE"), &cfg.StartDate)
	s.setString("end-date", env("END_DATE"), &cfg.EndDate)
	s.setString("accounts-file", env("ACCOUNTS_FILE"), &cfg.AccountsFile)
	s.setString("xdr-file", env("XDR_FILE"), &cfg.XDRFile)
	s.setString("output-dir", env("OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("watch", env("WATCH"), &cfg.Watch)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setDuration("poll-interval", env("POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("request-timeout", env("REQUEST_TIMEOUT"), &cfg.RequestTimeout); err != nil {
		return err
	}
	if err := s.setFloatFromString("requests-per-second", env("REQUESTS_PER_SECOND"), &cfg.RequestsPerSecond); err != nil {
		return err
	}
	if err := s.setIntFromString("start-offset", env("START_OFFSET"), &cfg.StartOffset); err != nil {
		return err
	}
	if err := s.setIntFromString("page-size", env("PAGE_SIZE"), &cfg.PageSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-retries", env("MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("fetch-attempts", env("FETCH_ATTEMPTS"), &cfg.FetchAttempts); err != nil {
		return err
	}
	if err := s.setBoolFromString("resume", env("RESUME"), &cfg.Resume); err != nil {
		return err
	}

	return nil
}
