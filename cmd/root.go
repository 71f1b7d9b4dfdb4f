// Package cmd holds the alephplay command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llehouerou/alephplay/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "alephplay",
	Short: "alephplay streams music from an Aleph streaming service in the terminal.",
	Long: `alephplay is a terminal client for the Aleph streaming service. It keeps a
realtime session with the service, plays the audio it hands out and records
what you listened to.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ~/.config/alephplay/config.toml, then ./config.toml)")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom([]string{configPath})
	}
	return config.Load()
}
