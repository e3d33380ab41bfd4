package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults and VOLBRIDGE_* environment
overrides are applied. The table format prints YAML.

Examples:
  volbridge config show
  VOLBRIDGE_LOGGING_LEVEL=DEBUG volbridge config show -o json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	if p.Format() == output.FormatTable {
		return output.PrintYAML(p.Writer(), cfg)
	}
	return p.Print(cfg)
}
