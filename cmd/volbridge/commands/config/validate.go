package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/pkg/config"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/volume/backends"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the volbridge configuration file.

Checks for syntax errors, missing required fields and invalid values, and
reports which shares will ride a common connection.

Examples:
  volbridge config validate
  volbridge config validate --config /etc/volbridge/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// warnings returns non-fatal findings about cfg.
func warnings(cfg *config.Config) []string {
	var out []string
	if !cfg.API.Enabled {
		out = append(out, "Admin API disabled - volbridge client commands will not reach this server")
	}
	for _, s := range cfg.Shares {
		if s.Backend == backends.Memory {
			out = append(out, fmt.Sprintf("Share %q uses the memory backend - its data is lost on restart", s.Name))
		}
	}
	return out
}

// connectionGroups returns the share names of every registry key used by
// more than one share.
func connectionGroups(cfg *config.Config) map[registry.Key][]string {
	groups := make(map[registry.Key][]string)
	for _, s := range cfg.ShareConfigs() {
		key := registry.Key{Volume: s.ConnectConfig().Volume, MountPath: s.Path}
		groups[key] = append(groups[key], s.Name)
	}
	for k, names := range groups {
		if len(names) < 2 {
			delete(groups, k)
		}
	}
	return groups
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}

	p.Printf("Configuration file: %s\n", configPath())
	p.Success("Validation: OK")

	if ws := warnings(cfg); len(ws) > 0 {
		p.Println("\nWarnings:")
		for _, w := range ws {
			p.Printf("  - %s\n", w)
		}
	}

	p.Println("\nConfiguration summary:")
	p.Printf("  Shares:          %d\n", len(cfg.Shares))
	p.Printf("  Connections:     %d\n", len(connectionKeys(cfg)))
	p.Printf("  API port:        %d\n", cfg.API.Port)
	p.Printf("  Log level:       %s\n", cfg.Logging.Level)

	groups := connectionGroups(cfg)
	keys := slices.SortedFunc(maps.Keys(groups), func(a, b registry.Key) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, key := range keys {
		p.Printf("  Shared %s by: %s\n", key, strings.Join(groups[key], ", "))
	}
	return nil
}

func connectionKeys(cfg *config.Config) map[registry.Key]struct{} {
	keys := make(map[registry.Key]struct{})
	for _, s := range cfg.ShareConfigs() {
		keys[registry.Key{Volume: s.ConnectConfig().Volume, MountPath: s.Path}] = struct{}{}
	}
	return keys
}
