package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the lspfeed configuration
type Config struct {
	Framing   string          `mapstructure:"framing"`
	Canonical bool            `mapstructure:"canonical"`
	LogLevel  string          `mapstructure:"log_level"`
	Document  DocumentConfig  `mapstructure:"document"`
	Transport TransportConfig `mapstructure:"transport"`
}

// DocumentConfig configures the document opened by --open
type DocumentConfig struct {
	LanguageID string `mapstructure:"language_id"`
}

// TransportConfig selects where frames are sent
type TransportConfig struct {
	TCP       string        `mapstructure:"tcp"`
	WebSocket string        `mapstructure:"websocket"`
	Exec      string        `mapstructure:"exec"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Load loads the configuration from path, or from lspfeed.yml / lspfeed.yaml
// in the working directory when path is empty. A missing file is not an
// error; defaults and LSPFEED_* environment variables apply. The result is
// not validated, so callers can apply overrides before calling Validate.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("framing", "compat")
	v.SetDefault("canonical", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("document.language_id", "toml")
	v.SetDefault("transport.tcp", "")
	v.SetDefault("transport.websocket", "")
	v.SetDefault("transport.exec", "")
	v.SetDefault("transport.timeout", "2s")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lspfeed")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix("LSPFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for conflicting or unknown values
func (c *Config) Validate() error {
	switch c.Framing {
	case "compat", "strict":
	default:
		return fmt.Errorf("framing must be 'compat' or 'strict', got: %s", c.Framing)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got: %s", c.LogLevel)
	}

	set := 0
	for _, s := range []string{c.Transport.TCP, c.Transport.WebSocket, c.Transport.Exec} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return errors.New("only one of transport.tcp, transport.websocket and transport.exec may be set")
	}

	if c.Transport.WebSocket != "" &&
		!strings.HasPrefix(c.Transport.WebSocket, "ws://") &&
		!strings.HasPrefix(c.Transport.WebSocket, "wss://") {
		return fmt.Errorf("transport.websocket must start with ws:// or wss://, got: %s", c.Transport.WebSocket)
	}

	if c.Transport.Timeout <= 0 {
		return fmt.Errorf("transport.timeout must be positive, got: %s", c.Transport.Timeout)
	}
	return nil
}

// ExecCommand splits transport.exec into program and arguments
func (c *Config) ExecCommand() []string {
	return strings.Fields(c.Transport.Exec)
}
