// Package commands implements the actorhostd CLI: serve, impulse, and
// inspect, in the style of substrate's cobra command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "actorhostd",
	Short: "Capability-oriented WASM actor runtime host",
	Long: `actorhostd hosts a population of WebAssembly actors addressed by small
integers, dispatches messages between them, and exposes the bootstrap
sequence over HTTP for embedding.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(impulseCmd)
	rootCmd.AddCommand(inspectCmd)
}
