package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"empdir/internal/api"
	"empdir/internal/config"
	"empdir/internal/logging"
)

type rootOptions struct {
	ConfigPath string
	BaseURL    string
	LogLevel   string

	cfg *config.Store
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "empdir",
		Short:         "Browse and edit the employee directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: user config dir)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "API base URL, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error or silent")

	cmd.AddCommand(newTUICmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

func (o *rootOptions) load() error {
	var (
		cfg *config.Store
		err error
	)
	if strings.TrimSpace(o.ConfigPath) != "" {
		cfg, err = config.LoadFrom(o.ConfigPath, config.DefaultEnvFiles...)
	} else {
		cfg, err = config.Load(config.DefaultEnvFiles...)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(o.BaseURL); v != "" {
		cfg.Config.BaseURL = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.Config.LogLevel = v
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) level() logrus.Level {
	return logging.ParseLevel(o.cfg.Config.LogLevel)
}

func (o *rootOptions) service(log logrus.FieldLogger) *api.Service {
	client := api.NewClient(o.cfg.Config.BaseURL,
		api.WithTimeout(o.cfg.Timeout()),
		api.WithLogger(log),
	)
	return api.NewService(client)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
