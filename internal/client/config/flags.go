package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/celar-labs/celar/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          base URL of the REST API
//	-db string         local SQLite database path
//	-refresh duration  refresh threshold (e.g. "5m")
//	-timeout duration  HTTP request timeout
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the server")
	fs.StringVar(&cfg.LocalDBPath, "db", cfg.LocalDBPath, "local database path")
	fs.DurationVar(&cfg.RefreshThreshold, "refresh", cfg.RefreshThreshold, "refresh the session when it expires sooner than this")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "HTTP request timeout")

	if err := flagx.ParseOwn(fs, args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.ServerEndpointAddr = strings.TrimRight(cfg.ServerEndpointAddr, "/")
	if cfg.ServerEndpointAddr == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if cfg.RefreshThreshold < 0 || cfg.RequestTimeout <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	return nil
}
