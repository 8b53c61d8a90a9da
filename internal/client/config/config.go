// Package config handles configuration for the CLI client: defaults, an
// optional JSON or YAML file (-c / -config) and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the payments REST API.
//   - LocalDBPath: SQLite file holding the session and the offline mirror.
//   - RefreshThreshold: refresh the session when it expires sooner than this.
//   - RequestTimeout: bound on each HTTP request.
type Config struct {
	ServerEndpointAddr string
	LocalDBPath        string
	RefreshThreshold   time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:3000"
	c.LocalDBPath = "celar-client.db"
	c.RefreshThreshold = 5 * time.Minute
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig applies defaults, then the config file, then flags. Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
