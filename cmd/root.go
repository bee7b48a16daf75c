package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configDefault string

var rootCmd = &cobra.Command{
	Use:   "idea-board",
	Short: "Realtime collaborative sticky-note board service",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the CLI. c is the embedded default configuration, written
// out on first start when no config file exists.
func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
