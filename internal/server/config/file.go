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

// fileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "1h" and integer nanoseconds are accepted.
type fileConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	PaymentSuccessRate           float64        `json:"payment_success_rate" yaml:"payment_success_rate"`
	WebhookURL                   string         `json:"webhook_url" yaml:"webhook_url"`
	WebhookTimeout               timex.Duration `json:"webhook_timeout" yaml:"webhook_timeout"`
	WebhookQueueSize             int            `json:"webhook_queue_size" yaml:"webhook_queue_size"`
	S3RootUser                   string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile overlays values from the file named by -c / -config.
// Keys absent from the file keep their current values. Files ending in
// .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fromConfig(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func fromConfig(c *Config) fileConfig {
	return fileConfig{
		EndpointAddrHTTP:             c.EndpointAddrHTTP,
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		PaymentSuccessRate:           c.PaymentSuccessRate,
		WebhookURL:                   c.WebhookURL,
		WebhookTimeout:               timex.Duration{Duration: c.WebhookTimeout},
		WebhookQueueSize:             c.WebhookQueueSize,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
	}
}

func (fc fileConfig) apply(c *Config) {
	c.EndpointAddrHTTP = fc.EndpointAddrHTTP
	c.EndpointAddrGRPC = fc.EndpointAddrGRPC
	c.DatabaseDSN = fc.DatabaseDSN
	c.SecretKey = fc.SecretKey
	c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	c.PaymentSuccessRate = fc.PaymentSuccessRate
	c.WebhookURL = fc.WebhookURL
	c.WebhookTimeout = fc.WebhookTimeout.Duration
	c.WebhookQueueSize = fc.WebhookQueueSize
	c.S3RootUser = fc.S3RootUser
	c.S3RootPassword = fc.S3RootPassword
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3BaseEndpoint = fc.S3BaseEndpoint
}
