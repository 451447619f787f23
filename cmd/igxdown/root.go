package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igxdown",
	Short: "A Telegram bot that downloads Instagram videos",
	Long: `igxdown is a Telegram bot that turns Instagram post, reel and IGTV
links into downloadable videos.

Send the bot a link and it resolves the video through a chain of
backends, downloads it under the Telegram size limit, and sends it
back to the chat.

Features:
  - Multiple download backends with automatic failover
  - Secure Instagram session storage using the system keychain
  - Per-user rate limiting
  - Per-user language preferences (English and Turkish)`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.igxdown.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}
