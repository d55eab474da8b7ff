package cliconfig

import (
	"strings"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"

	"github.com/bft-labs/claimdrop/internal/app"
	"github.com/bft-labs/claimdrop/internal/domain"
)

// dateLayouts are tried in order for start-date and end-date.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func configError(flag, format string, args ...any) error {
	return domain.ConfigError(flag, format, args...)
}

// NetworkProfile resolves the network name and optional Horizon override.
func (c *Config) NetworkProfile() (domain.NetworkProfile, error) {
	return domain.ParseNetwork(c.Network, c.HorizonURL)
}

// GeneratorConfig parses everything the generate command needs.
func (c *Config) GeneratorConfig() (app.GeneratorConfig, error) {
	network, err := c.NetworkProfile()
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	asset, err := domain.ParseAsset(c.Asset)
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	dist, err := parseSecret("distribution-secret", c.DistributionSecret)
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	if c.DistributionPublic != "" && c.DistributionPublic != dist.Address() {
		return app.GeneratorConfig{}, configError("distribution-public", "does not match distribution-secret")
	}
	if !strkey.IsValidEd25519PublicKey(c.CollectorPublic) {
		return app.GeneratorConfig{}, configError("collector-public", "invalid account %q", c.CollectorPublic)
	}
	base, err := domain.ParseBaseAmount(c.BaseAmount)
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	start, err := parseDate("start-date", c.StartDate)
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	end, err := parseDate("end-date", c.EndDate)
	if err != nil {
		return app.GeneratorConfig{}, err
	}
	window, err := domain.NewClaimWindow(start, end)
	if err != nil {
		return app.GeneratorConfig{}, err
	}

	cfg := app.GeneratorConfig{
		Network:      network,
		Distribution: dist,
		Collector:    c.CollectorPublic,
		Asset:        asset,
		Window:       window,
		BaseAmount:   base,
		PageSize:     c.PageSize,
		StartOffset:  c.StartOffset,
	}
	return cfg, cfg.Validate()
}

// SignerKey parses the co-signing key.
func (c *Config) SignerKey() (*keypair.Full, error) {
	return parseSecret("signer-secret", c.SignerSecret)
}

// SubmitterConfig parses everything the submit command needs.
func (c *Config) SubmitterConfig() (app.SubmitterConfig, error) {
	network, err := c.NetworkProfile()
	if err != nil {
		return app.SubmitterConfig{}, err
	}
	cfg := app.SubmitterConfig{
		Network:        network,
		MaxRetries:     c.MaxRetries,
		BackoffInitial: app.DefaultBackoffInitial,
		BackoffMax:     app.DefaultBackoffMax,
	}
	return cfg, cfg.Validate()
}

// CollectorConfig parses everything the collect command needs.
func (c *Config) CollectorConfig() (app.CollectorConfig, error) {
	network, err := c.NetworkProfile()
	if err != nil {
		return app.CollectorConfig{}, err
	}
	asset, err := domain.ParseAsset(c.Asset)
	if err != nil {
		return app.CollectorConfig{}, err
	}
	collector, err := parseSecret("collector-secret", c.CollectorSecret)
	if err != nil {
		return app.CollectorConfig{}, err
	}
	if c.CollectorPublic != "" && c.CollectorPublic != collector.Address() {
		return app.CollectorConfig{}, configError("collector-public", "does not match collector-secret")
	}

	cfg := app.CollectorConfig{
		Network:        network,
		Collector:      collector,
		Asset:          asset,
		PageSize:       c.PageSize,
		PollInterval:   c.PollInterval,
		FetchAttempts:  c.FetchAttempts,
		BackoffInitial: app.DefaultBackoffInitial,
		BackoffMax:     app.DefaultBackoffMax,
	}
	return cfg, cfg.Validate()
}

func parseSecret(flag, secret string) (*keypair.Full, error) {
	if secret == "" {
		return nil, configError(flag, "is required")
	}
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return nil, configError(flag, "invalid secret seed")
	}
	return kp, nil
}

func parseDate(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, configError(flag, "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, configError(flag, "%q is not a date (want %s)", value, strings.Join(dateLayouts, " or "))
}
