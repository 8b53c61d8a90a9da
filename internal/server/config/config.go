// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the payments server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the REST API.
//   - EndpointAddrGRPC: bind address for the gRPC health service.
//   - DatabaseDSN: "memory://", a postgres:// URL, or a SQLite file/DSN.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - PaymentSuccessRate: probability that a simulated payment succeeds.
//   - WebhookURL / WebhookTimeout / WebhookQueueSize: payment notifications.
//     An empty URL disables the webhook.
//   - S3*: optional archive of payment events. An empty bucket disables it.
type Config struct {
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PaymentSuccessRate           float64
	WebhookURL                   string
	WebhookTimeout               time.Duration
	WebhookQueueSize             int
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of local development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":3000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "celar.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.PaymentSuccessRate = 0.8
	c.WebhookURL = ""
	c.WebhookTimeout = 5 * time.Second
	c.WebhookQueueSize = 100
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
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
