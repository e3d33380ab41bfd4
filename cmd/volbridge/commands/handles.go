package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/registry"
)

var handlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "List live volume connections",
	Long: `List the connections held by a running server, one per volume and
mount path, with the number of shares using each.

Examples:
  volbridge handles
  volbridge handles -o json`,
	Args: cobra.NoArgs,
	RunE: runHandles,
}

func handlesView(entries []registry.Entry) *output.Table {
	t := output.NewTable("VOLUME", "MOUNT PATH", "BACKEND", "SERVER", "REFS", "AGE")
	now := time.Now()
	for _, e := range entries {
		t.AddRow(e.Volume, e.MountPath, e.Backend, e.Server,
			strconv.Itoa(e.Refs), now.Sub(e.CreatedAt).Truncate(time.Second).String())
	}
	return t
}

func runHandles(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	entries, err := cmdutil.Client().ListHandles(contextOf(cmd))
	if err != nil {
		return err
	}
	if len(entries) == 0 && p.Format() == output.FormatTable {
		p.Println("No live connections.")
		return nil
	}
	return p.PrintView(handlesView(entries), entries)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
