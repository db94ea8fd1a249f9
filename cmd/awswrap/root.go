package main

import (
	"fmt"

	"github.com/gurre/awswrap/cloud"
	"github.com/gurre/awswrap/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	configFile string
	envFile    string
}

var (
	log    = logrus.New()
	client *cloud.Client
)

var rootCmd = &cobra.Command{
	Use:           "awswrap",
	Short:         "Convenience commands over the AWS service wrappers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(rootFlags.envFile); err != nil {
			return err
		}

		v, err := config.NewViper(rootFlags.configFile)
		if err != nil {
			return err
		}
		for _, key := range []string{
			config.KeyRegion,
			config.KeyProfile,
			config.KeyEndpoint,
			config.KeyMaxAttempts,
			config.KeyS3UsePathStyle,
			config.KeyLogLevel,
		} {
			if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(key)); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", key, err)
			}
		}

		cfg, err := config.FromViper(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)

		client, err = cloud.New(cmd.Context(), cfg, cloud.WithLogger(log))
		return err
	},
}

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.configFile, "config", "", "config file (default is $HOME/.awswrap.yaml)")
	flags.StringVar(&rootFlags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String(config.KeyRegion, config.DefaultRegion, "AWS region shared by every service")
	flags.String(config.KeyProfile, "", "shared config profile")
	flags.String(config.KeyEndpoint, "", "endpoint override, e.g. http://localhost:4566")
	flags.Int(config.KeyMaxAttempts, 0, "SDK retry attempts (0 keeps the SDK default)")
	flags.Bool(config.KeyS3UsePathStyle, false, "use path-style S3 addressing")
	flags.String(config.KeyLogLevel, logrus.InfoLevel.String(), "log level")

	rootCmd.AddCommand(listCmd, smokeCmd, loadItemsCmd)
}
