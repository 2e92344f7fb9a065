package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/bingo-rooms/game/code"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Code length bounds accepted by Validate.
const (
	MinCodeLength = 4
	MaxCodeLength = 16
)

// Config holds process-level settings.
type Config struct {
	AppName    string
	Host       string
	Port       int
	CodeLength int
	Origins    []string
	LogLevel   string
	LogFormat  string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		AppName:    "Bingo Backend",
		Host:       "0.0.0.0",
		Port:       8000,
		CodeLength: code.DefaultLength,
		Origins:    []string{"*"},
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.CodeLength < MinCodeLength || c.CodeLength > MaxCodeLength {
		return fmt.Errorf("%w: code length %d not in %d..%d", ErrInvalidConfig, c.CodeLength, MinCodeLength, MaxCodeLength)
	}
	if len(c.Origins) == 0 {
		return fmt.Errorf("%w: at least one origin is required", ErrInvalidConfig)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AllowsAnyOrigin reports whether the origin list is the wildcard.
func (c Config) AllowsAnyOrigin() bool {
	for _, o := range c.Origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// OriginAllowed reports whether a browser origin may call the server.
func (c Config) OriginAllowed(origin string) bool {
	if c.AllowsAnyOrigin() {
		return true
	}
	for _, o := range c.Origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// ParseOrigins splits a comma-separated origin list, dropping blanks.
func ParseOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// NewLogger builds a logger writing to out at the configured level and format.
func (c Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
