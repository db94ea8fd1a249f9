// Package config holds the settings shared by every service wrapper: the
// region all clients are bound to, plus the optional credentials, endpoint and
// retry overrides used to build the SDK configuration.
package config

import (
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// DefaultRegion is the region used when none is configured.
const DefaultRegion = "us-east-1"

// Config holds the settings used to build the AWS SDK configuration.
type Config struct {
	Region          string // AWS region every client is bound to
	Profile         string // Shared config profile, empty for the default chain
	Endpoint        string // Base endpoint override (LocalStack, MinIO, ...)
	AccessKeyID     string // Static credentials, used only when both keys are set
	SecretAccessKey string
	SessionToken    string
	MaxAttempts     int    // SDK retryer attempts, 0 keeps the SDK default
	S3UsePathStyle  bool   // Path-style S3 addressing for S3-compatible endpoints
	LogLevel        string // logrus level name
}

// Default returns a Config with the default region and log level.
func Default() Config {
	return Config{
		Region:   DefaultRegion,
		LogLevel: logrus.InfoLevel.String(),
	}
}

// HasStaticCredentials reports whether both static keys are present.
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Validate checks the configuration. An empty region is replaced with
// DefaultRegion rather than rejected.
func (c *Config) Validate() error {
	if c.Region == "" {
		c.Region = DefaultRegion
	}

	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint must use http or https scheme")
		}
		if u.Host == "" {
			return fmt.Errorf("endpoint must include a host")
		}
	}

	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access key ID and secret access key must be set together")
	}

	if c.SessionToken != "" && !c.HasStaticCredentials() {
		return fmt.Errorf("session token requires static credentials")
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}

	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	return nil
}
