// Package commands implements the cifsgate command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/cifsgate/cmd/cifsgate/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "cifsgate",
	Short: "cifsgate - CIFS/SMB session server",
	Long: `cifsgate accepts SMB clients over native TCP and the NetBIOS session
service, authenticates them against locally configured users and decides
share access with ordered allow/disallow rules.

A read-only admin API reports the live sessions, handlers and shares.

Use "cifsgate [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cifsgate/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(sharesCmd)
	rootCmd.AddCommand(aclCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
