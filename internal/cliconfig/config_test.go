package cliconfig

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stellar/go/keypair"

	"github.com/bft-labs/claimdrop/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Network != "testnet" {
		t.Errorf("Network = %v, want testnet", cfg.Network)
	}
	if cfg.PageSize != domain.MaxOperationsPerTransaction {
		t.Errorf("PageSize = %v, want %d", cfg.PageSize, domain.MaxOperationsPerTransaction)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %v, want 0", cfg.MaxRetries)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
}

func validGenerateConfig() Config {
	dist := keypair.MustRandom()
	cfg := DefaultConfig()
	cfg.Asset = "DROP:" + keypair.MustRandom().Address()
	cfg.DistributionPublic = dist.Address()
	cfg.DistributionSecret = dist.Seed()
	cfg.CollectorPublic = keypair.MustRandom().Address()
	cfg.BaseAmount = "2.50"
	cfg.StartDate = "2021-08-16T00:00:00Z"
	cfg.EndDate = "2021-09-16"
	cfg.AccountsFile = "accounts.csv"
	return cfg
}

func TestConfig_ValidateGenerate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown network", mutate: func(c *Config) { c.Network = "futurenet" }, wantErr: true},
		{name: "missing accounts file", mutate: func(c *Config) { c.AccountsFile = "" }, wantErr: true},
		{name: "bad asset", mutate: func(c *Config) { c.Asset = "DROP" }, wantErr: true},
		{name: "bad secret", mutate: func(c *Config) { c.DistributionSecret = "SNOPE" }, wantErr: true},
		{name: "public does not match secret", mutate: func(c *Config) { c.DistributionPublic = keypair.MustRandom().Address() }, wantErr: true},
		{name: "public optional", mutate: func(c *Config) { c.DistributionPublic = "" }},
		{name: "bad collector", mutate: func(c *Config) { c.CollectorPublic = "GBAD" }, wantErr: true},
		{name: "zero base amount", mutate: func(c *Config) { c.BaseAmount = "0" }, wantErr: true},
		{name: "bad start date", mutate: func(c *Config) { c.StartDate = "yesterday" }, wantErr: true},
		{name: "empty window", mutate: func(c *Config) { c.EndDate = c.StartDate }, wantErr: true},
		{name: "page size too large", mutate: func(c *Config) { c.PageSize = 101 }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validGenerateConfig()
			tt.mutate(&cfg)
			err := cfg.Validate(CommandGenerate)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error but got nil")
				}
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_GeneratorConfig(t *testing.T) {
	cfg := validGenerateConfig()
	cfg.StartOffset = 100

	gc, err := cfg.GeneratorConfig()
	if err != nil {
		t.Fatalf("GeneratorConfig() error = %v", err)
	}
	if gc.Distribution.Address() != cfg.DistributionPublic {
		t.Errorf("Distribution = %v, want %v", gc.Distribution.Address(), cfg.DistributionPublic)
	}
	wantStart := time.Date(2021, 8, 16, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2021, 9, 16, 0, 0, 0, 0, time.UTC)
	if !gc.Window.NotBefore.Equal(wantStart) || !gc.Window.NotAfter.Equal(wantEnd) {
		t.Errorf("Window = %+v, want %v..%v", gc.Window, wantStart, wantEnd)
	}
	if gc.BaseAmount.String() != "2.5" {
		t.Errorf("BaseAmount = %v, want 2.5", gc.BaseAmount)
	}
	if gc.StartOffset != 100 {
		t.Errorf("StartOffset = %v, want 100", gc.StartOffset)
	}
	if gc.Network.Name != domain.NetworkTestnet {
		t.Errorf("Network = %v, want testnet", gc.Network.Name)
	}
}

func TestConfig_ValidateOtherCommands(t *testing.T) {
	collector := keypair.MustRandom()

	tests := []struct {
		name    string
		command string
		cfg     func() Config
		wantErr bool
	}{
		{
			name:    "sign needs xdr file",
			command: CommandSign,
			cfg: func() Config {
				c := DefaultConfig()
				c.SignerSecret = keypair.MustRandom().Seed()
				return c
			},
			wantErr: true,
		},
		{
			name:    "sign valid",
			command: CommandSign,
			cfg: func() Config {
				c := DefaultConfig()
				c.XDRFile = "generated_xdrs_1.csv"
				c.SignerSecret = keypair.MustRandom().Seed()
				return c
			},
		},
		{
			name:    "submit needs a file or a watch dir",
			command: CommandSubmit,
			cfg:     DefaultConfig,
			wantErr: true,
		},
		{
			name:    "submit watch",
			command: CommandSubmit,
			cfg: func() Config {
				c := DefaultConfig()
				c.Watch = "/tmp"
				return c
			},
		},
		{
			name:    "submit negative retries",
			command: CommandSubmit,
			cfg: func() Config {
				c := DefaultConfig()
				c.XDRFile = "a.csv"
				c.MaxRetries = -1
				return c
			},
			wantErr: true,
		},
		{
			name:    "collect valid",
			command: CommandCollect,
			cfg: func() Config {
				c := DefaultConfig()
				c.Asset = "DROP:" + keypair.MustRandom().Address()
				c.CollectorSecret = collector.Seed()
				c.CollectorPublic = collector.Address()
				return c
			},
		},
		{
			name:    "collect missing secret",
			command: CommandCollect,
			cfg: func() Config {
				c := DefaultConfig()
				c.Asset = "DROP:" + keypair.MustRandom().Address()
				return c
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg()
			err := cfg.Validate(tt.command)
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := validGenerateConfig()
	cfg.SignerSecret = keypair.MustRandom().Seed()

	m := cfg.Masked()
	if m.DistributionSecret != "*****" || m.SignerSecret != "*****" {
		t.Errorf("Masked() left secrets visible: %+v", m)
	}
	if m.CollectorSecret != "" {
		t.Errorf("CollectorSecret = %q, want empty", m.CollectorSecret)
	}
	if cfg.DistributionSecret == "*****" {
		t.Error("Masked() modified the receiver")
	}
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	log, err := cfg.Logger(&buf)
	if err != nil {
		t.Fatalf("Logger() error = %v", err)
	}
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("warn message missing: %s", out)
	}
}
