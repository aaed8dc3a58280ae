// Package config holds the settings for the spnavctl tool.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Backend names accepted in the device section.
const (
	BackendSocket = "socket"
	BackendHID    = "hid"
)

type Config struct {
	Socket SocketConfig `toml:"socket"`
	Device DeviceConfig `toml:"device"`
	Log    LogConfig    `toml:"log"`
}

// SocketConfig configures the spacenavd socket transport.
type SocketConfig struct {
	// Path of the daemon socket; empty selects the driver default.
	Path string `toml:"path"`
	// WaitTimeout bounds how long to wait for the socket to appear when
	// starting before the daemon. Zero means do not wait.
	WaitTimeout time.Duration `toml:"wait_timeout"`
}

// DeviceConfig selects the transport and its device parameters.
type DeviceConfig struct {
	Backend     string  `toml:"backend"`
	VendorID    uint16  `toml:"vendor_id"`
	ProductID   uint16  `toml:"product_id"`
	Sensitivity float64 `toml:"sensitivity"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings: daemon socket transport, unit
// sensitivity, text logs at info level.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Backend:     BackendSocket,
			Sensitivity: 1.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Device.Backend {
	case BackendSocket, BackendHID:
	default:
		return fmt.Errorf("unknown backend %q", c.Device.Backend)
	}
	if c.Device.Sensitivity <= 0 {
		return fmt.Errorf("sensitivity must be positive, got %v", c.Device.Sensitivity)
	}
	return nil
}
