// Package config loads the optional user configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML values can be written as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Poll tunes the background poller. Heartbeat is a pointer so an
// explicit "0s" (heartbeats off) is distinguishable from an absent key
// (use the default cadence).
type Poll struct {
	Interval         Duration  `toml:"interval"`
	FailureThreshold int       `toml:"failure_threshold"`
	Heartbeat        *Duration `toml:"heartbeat"`
}

// Log configures the optional debug log.
type Log struct {
	File string `toml:"file"`
}

// Config is the user configuration. Every field is optional; the zero
// value is a complete working configuration.
type Config struct {
	Editor string `toml:"editor"`
	Theme  string `toml:"theme"`
	Poll   Poll   `toml:"poll"`
	Log    Log    `toml:"log"`
}

// Path returns the config file location, honoring XDG_CONFIG_HOME.
func Path() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "prdiff", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "prdiff", "config.toml"), nil
}

// Load reads the config file if it exists, then applies environment
// overrides. A missing file yields the zero config.
func Load() (Config, error) {
	var cfg Config
	path, err := Path()
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRDIFF_LOG"); v != "" {
		cfg.Log.File = v
	}
}
