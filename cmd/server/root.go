package main

import (
	"careerchat/internal/config"
	"careerchat/internal/logger"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "careerchat"

var (
	cfgFile   string
	debugLogs bool
	jsonLogs  bool

	rootCmd = &cobra.Command{
		Use:          appName,
		Short:        "careerchat runs a conversational career assessment service",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (environment variables are used when empty)")
	rootCmd.PersistentFlags().BoolVarP(&debugLogs, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
}

// loadRuntime reads the configuration and builds the logger. Flags override config values.
func loadRuntime(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = debugLogs
	}
	if cmd.Flags().Changed("json") {
		cfg.Log.JSON = jsonLogs
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
