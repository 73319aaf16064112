// Package commands implements the remindclaw CLI commands using cobra.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/config"
)

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "remindclaw",
		Short: "remindclaw - reminders over Discord",
		Long: `remindclaw is a Discord bot that understands free-form reminder times
("4:13 PM", "2020-04-13 06:12", "5 weeks") and messages you when they are due.

Examples:
  remindclaw serve
  remindclaw console --user me
  remindclaw parse --tz est 4:13 PM call mom
  remindclaw tz tokyo`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newConsoleCmd(),
		newParseCmd(),
		newTZCmd(),
		newHealthCmd(),
		newSetupCmd(),
		newTokenCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}

// loadConfig loads the file given by --config, or the first one found in
// the standard locations, or the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		path = config.Find()
	}

	cfg, err := config.Load(path)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if path != "" {
		slog.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section and
// --verbose, and installs it as the slog default.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
