// Package commands implements the volbridge command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	aclcmd "github.com/marmos91/volbridge/cmd/volbridge/commands/acl"
	configcmd "github.com/marmos91/volbridge/cmd/volbridge/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "volbridge",
	Short: "volbridge - share distributed volumes with file servers",
	Long: `volbridge connects file server shares to storage volumes. Shares that
name the same volume and path ride a single connection, which is torn down
when the last of them disconnects.

The serve command runs the bridge. The other commands talk to a running
server over its admin API, or work offline on encoded ACLs.

Use "volbridge [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigFile, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/volbridge/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "admin API URL (default: from config, else http://localhost:8080)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(handlesCmd)
	rootCmd.AddCommand(sharesCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(dfCmd)
	rootCmd.AddCommand(aclcmd.Cmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
