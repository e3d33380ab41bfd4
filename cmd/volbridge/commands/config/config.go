// Package config implements configuration management commands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/pkg/config"
)

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Create, inspect and validate the volbridge configuration file.

Examples:
  # Create a configuration interactively
  volbridge config init

  # Validate a configuration file
  volbridge config validate --config /etc/volbridge/config.yaml

  # Print the effective configuration
  volbridge config show -o yaml`,
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(schemaCmd)
}

// configPath returns the --config value or the default location.
func configPath() string {
	if cmdutil.Flags.ConfigFile != "" {
		return cmdutil.Flags.ConfigFile
	}
	return config.GetDefaultConfigPath()
}
