package main

import (
	"errors"
	"fmt"
	"os"

	"browser-pilot/internal/di"
	"browser-pilot/internal/infrastructure/config"
	"browser-pilot/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

const defaultConfigFile = "pilot.yaml"

type rootOptions struct {
	cfgFile  string
	headless bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "browser-pilot drives a browser from chat messages and tagged actions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./pilot.yaml when present)")
	cmd.PersistentFlags().BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")

	cmd.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newActCmd(opts),
	)
	return cmd
}

// loadConfig applies the env files, the config file and then flags that were
// set explicitly.
func (o *rootOptions) loadConfig(cmd *cobra.Command, envService *env.EnvService) (*config.Config, error) {
	path := o.cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", defaultConfigFile, err)
		}
	}

	cfg, err := config.Load(path, envService)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = o.headless
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) container(cmd *cobra.Command, opts ...di.Option) (*di.Container, error) {
	envService := env.NewEnvService()
	cfg, err := o.loadConfig(cmd, envService)
	if err != nil {
		return nil, err
	}
	c, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	c.Logger.Debug("Environment loaded", "app_env", envService.AppEnv(), "files", envService.Loaded())
	return c, nil
}
