// Package cli provides the command-line interface for chandigest.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

const defaultConfigDir = ".chandigest"

var (
	configDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "chandigest",
	Short: "Digest public Telegram channels and feeds",
	Long: "chandigest collects recent posts from public Telegram channels, groups and RSS feeds, " +
		"filters noise and duplicates, scores the overall tone, and delivers a short balanced digest.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "chandigest %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", defaultConfigDir, "config directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
