package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/celar-labs/celar/internal/flagx"
	"github.com/celar-labs/celar/internal/timex"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	LocalDBPath        string         `json:"local_db_path" yaml:"local_db_path"`
	RefreshThreshold   timex.Duration `json:"refresh_threshold" yaml:"refresh_threshold"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// parseFile overlays values from the file named by -c / -config. Missing
// keys keep their defaults.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		LocalDBPath:        cfg.LocalDBPath,
		RefreshThreshold:   timex.Duration{Duration: cfg.RefreshThreshold},
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	cfg.LocalDBPath = fc.LocalDBPath
	cfg.RefreshThreshold = fc.RefreshThreshold.Duration
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	return nil
}
