/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	apiURL      string
	sessionFile string
	logLevel    string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Quicktech student management portal",
	Long: `A terminal front end for the Quicktech student management portal.

Each screen of the portal is a command. Sign in first:

	portal login --email admin@quicktech.com
	portal students list --status Active
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.apiURL, "api", "", "API base URL (overrides PORTAL_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.sessionFile, "session-file", "", "session file (overrides PORTAL_SESSION_FILE)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error (overrides PORTAL_LOG_LEVEL)")
}
