package cliconfig

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	logadapter "github.com/bft-labs/claimdrop/internal/adapters/log"
)

func parseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, configError("log-level", "%q is not a log level", level)
	}
	return l, nil
}

// Logger builds the process logger from log-level and log-format.
func (c *Config) Logger(out io.Writer) (zerolog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}
	if c.LogFormat == "json" {
		return logadapter.NewJSONLogger(out, level), nil
	}
	return logadapter.NewConsoleLogger(out, level), nil
}
