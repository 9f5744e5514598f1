package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/jukebox/internal/config"
	"github.com/keshon/jukebox/internal/logging"
	v "github.com/keshon/jukebox/internal/version"
)

// consoleToken stands in for DISCORD_TOKEN when nothing talks to Discord.
const consoleToken = "console"

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: v.AppDescription,
	Long: `jukebox runs the music bot's commands outside Discord.

The console subcommand feeds stdin lines to the same command router the
bot uses, with a voice connection that discards audio. The history
subcommand prints what the bot stored for a guild.`,
	Version:       v.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(consoleCmd, historyCmd)
}

func loadConfig() (*config.Config, error) {
	if os.Getenv("DISCORD_TOKEN") == "" && os.Getenv("DISCORD_BOT_TOKEN") == "" {
		os.Setenv("DISCORD_TOKEN", consoleToken)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (zerolog.Logger, func()) {
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: os.Stderr})
	return logger, func() { closer.Close() }
}
