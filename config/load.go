package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. AWSWRAP_REGION.
const EnvPrefix = "AWSWRAP"

// Viper keys.
const (
	KeyRegion          = "region"
	KeyProfile         = "profile"
	KeyEndpoint        = "endpoint"
	KeyAccessKeyID     = "access-key-id"
	KeySecretAccessKey = "secret-access-key"
	KeySessionToken    = "session-token"
	KeyMaxAttempts     = "max-attempts"
	KeyS3UsePathStyle  = "s3-use-path-style"
	KeyLogLevel        = "log-level"
)

var envKeyReplacer = strings.NewReplacer("-", "_")

// NewViper returns a viper instance with defaults and environment binding set
// up. When cfgFile is empty, $HOME/.awswrap.yaml is used if it exists.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyRegion, def.Region)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyMaxAttempts, 0)
	v.SetDefault(KeyS3UsePathStyle, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if cfgFile == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		candidate := filepath.Join(home, ".awswrap.yaml")
		if _, err := os.Stat(candidate); err != nil {
			return v, nil
		}
		cfgFile = candidate
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
	return v, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Region:          v.GetString(KeyRegion),
		Profile:         v.GetString(KeyProfile),
		Endpoint:        v.GetString(KeyEndpoint),
		AccessKeyID:     v.GetString(KeyAccessKeyID),
		SecretAccessKey: v.GetString(KeySecretAccessKey),
		SessionToken:    v.GetString(KeySessionToken),
		MaxAttempts:     v.GetInt(KeyMaxAttempts),
		S3UsePathStyle:  v.GetBool(KeyS3UsePathStyle),
		LogLevel:        v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadAWSConfig resolves the SDK configuration for cfg. The returned config
// carries cfg.Region, so every client built from it shares that region.
func LoadAWSConfig(ctx context.Context, cfg Config) (sdkaws.Config, error) {
	if err := cfg.Validate(); err != nil {
		return sdkaws.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.HasStaticCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, awsconfig.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return sdkaws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = sdkaws.String(cfg.Endpoint)
	}

	return awsCfg, nil
}
