// Package cmd implements the command line interface of the ring network
// simulator.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ringnet",
	Short: "Discrete-event simulator for credit-flow-controlled ring networks",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file can provide defaults such as RINGNET_MONITOR_PORT.
		_ = godotenv.Load()

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
}
