package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Funnel runs a scripted conversation funnel",
	Long: `Funnel plays timed chat scripts, a customization wizard and an offer page,
guarded by persisted progress flags. Serve it over HTTP or play a script in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return config.LoadDotEnv(envFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL)")
	rootCmd.PersistentFlags().String("scripts", "", "Directory with script and catalog YAML files (default: embedded)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before reading configuration")
}

// loadConfig reads the environment and applies the persistent flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewWithWriter(os.Stderr, level, cfg.LogJSON), nil
}

func scriptOptions(cmd *cobra.Command) []funnel.Option {
	if dir, _ := cmd.Flags().GetString("scripts"); dir != "" {
		return []funnel.Option{funnel.WithScriptDir(dir)}
	}
	return nil
}
