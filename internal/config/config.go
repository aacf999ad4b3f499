// Package config loads ice-candidate command configuration from flags,
// environment and optional config file.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prefix of environment variables, e.g. ICECANDIDATE_FORMAT.
const EnvPrefix = "ICECANDIDATE"

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config of ice-candidate command.
type Config struct {
	// Input is file with one candidate per line, "-" is stdin.
	Input string `mapstructure:"input"`
	// Format is FormatJSON or FormatYAML.
	Format string `mapstructure:"format"`
	// Strict makes any unparsable candidate fail the run.
	Strict   bool   `mapstructure:"strict"`
	LogLevel string `mapstructure:"log-level"`
}

// Default values.
var defaults = map[string]interface{}{
	"input":     "-",
	"format":    FormatJSON,
	"strict":    false,
	"log-level": logrus.InfoLevel.String(),
}

// ErrInvalid is returned for configuration values out of range.
var ErrInvalid = errors.New("config: invalid value")

// Validate returns error if c can't be used.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return errors.Wrapf(ErrInvalid, "format %q", c.Format)
	}
	if c.Input == "" {
		return errors.Wrap(ErrInvalid, "empty input")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log level %q", c.LogLevel)
	}
	return nil
}

// Level returns parsed LogLevel, falling back to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Load reads configuration into Config. Flags should be already bound
// to v. If path is not empty, it is read as config file; its type is
// deduced from extension.
func Load(v *viper.Viper, path string) (*Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
