package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/celar-labs/celar/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     REST bind address (e.g. ":3000")
//	-grpc string  gRPC health bind address
//	-d string     database DSN
//	-s string     JWT HMAC secret key
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-rate float   simulated payment success rate, 0..1
//	-w string     webhook URL
//	-u string     S3 user
//	-p string     S3 password
//	-b string     S3 bucket
//	-g string     S3 region
//	-e string     S3 base endpoint
//
// Flags not listed above (such as -c) are left to other parsers.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run REST server")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.Float64Var(&config.PaymentSuccessRate, "rate", config.PaymentSuccessRate, "payment success rate")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "webhook URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := flagx.ParseOwn(fs, args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Minute-granular flags only override lifetimes when given explicitly,
	// so sub-minute values from a config file survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
		}
	})

	if config.AccessTokenValidityDuration <= 0 {
		return fmt.Errorf("access token validity must be positive")
	}
	if config.PaymentSuccessRate < 0 || config.PaymentSuccessRate > 1 {
		return fmt.Errorf("payment success rate must be within [0, 1], got %v", config.PaymentSuccessRate)
	}
	return nil
}
