// Package commands implements the e84ctl CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string
var apiAddr string

var rootCmd = &cobra.Command{
	Use:           "e84ctl",
	Short:         "SEMI E84 equipment-side handshake controller",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults to built-in options")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api-addr", "http://127.0.0.1:8765", "operator surface HTTP address, for status/reset/stop")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(setModeCmd)
}
