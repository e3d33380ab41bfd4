package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/api/handlers"
)

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Inspect connected shares",
	Long: `Inspect the shares of a running server.

Examples:
  # List every share
  volbridge shares list

  # Show one share
  volbridge shares show docs -o yaml`,
}

var sharesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List connected shares",
	Args:    cobra.NoArgs,
	RunE:    runSharesList,
}

var sharesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one share",
	Args:  cobra.ExactArgs(1),
	RunE:  runSharesShow,
}

func init() {
	sharesCmd.AddCommand(sharesListCmd)
	sharesCmd.AddCommand(sharesShowCmd)
}

// shareList renders shares as a table.
type shareList []handlers.ShareInfo

func (sl shareList) Headers() []string {
	return []string{"NAME", "VOLUME", "PATH", "BACKEND", "REFS"}
}

func (sl shareList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		rows = append(rows, []string{s.Name, s.Volume, s.Path, s.Backend, strconv.Itoa(s.Refs)})
	}
	return rows
}

func shareView(s handlers.ShareInfo) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Name", s.Name)
	kv.Add("Volume", s.Volume)
	kv.Add("Path", s.Path)
	kv.Add("Backend", s.Backend)
	kv.Add("Shared by", strconv.Itoa(s.Refs))
	if s.Capabilities != "" {
		kv.Add("Capabilities", s.Capabilities)
	}
	if s.TimestampResolution != "" {
		kv.Add("Timestamps", s.TimestampResolution)
	}
	return kv
}

func runSharesList(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	shares, err := cmdutil.Client().ListShares(contextOf(cmd))
	if err != nil {
		return err
	}
	if len(shares) == 0 && p.Format() == output.FormatTable {
		p.Println("No shares connected.")
		return nil
	}
	return p.PrintView(shareList(shares), shares)
}

func runSharesShow(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	s, err := cmdutil.Client().GetShare(contextOf(cmd), args[0])
	if err != nil {
		return err
	}
	return p.PrintView(shareView(s), s)
}
