package acl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/cli/prompt"
	"github.com/marmos91/volbridge/pkg/acl"
)

var (
	aclType    string
	forceRmDef bool
)

var getCmd = &cobra.Command{
	Use:   "get <share> <path>",
	Short: "Show a file's ACL",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <share> <path> <acl>",
	Short: "Replace a file's ACL",
	Long: `Replace a file's ACL. The ACL uses the short form accepted by setfacl,
for example "user::rw-,user:1000:r--,group::r--,mask::r--,other::---".
Entries are stored in canonical order whatever order they are given in.`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var rmDefaultCmd = &cobra.Command{
	Use:   "rm-default <share> <path>",
	Short: "Remove a directory's default ACL",
	Long: `Remove a directory's default ACL. Files created in it afterwards get
their permissions from the mode bits alone.

Asks for confirmation unless --force is given.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runRmDefault,
}

func init() {
	for _, c := range []*cobra.Command{getCmd, setCmd} {
		c.Flags().StringVarP(&aclType, "type", "t", "access", "ACL type (access|default)")
	}
	rmDefaultCmd.Flags().BoolVarP(&forceRmDef, "force", "f", false, "Skip confirmation")
}

func runGet(cmd *cobra.Command, args []string) error {
	t, err := acl.ParseType(aclType)
	if err != nil {
		return err
	}
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	resp, err := cmdutil.Client().GetACL(contextOf(cmd), args[0], args[1], t)
	if err != nil {
		return err
	}
	return p.PrintView(entryTable(resp.Entries), resp)
}

func runSet(cmd *cobra.Command, args []string) error {
	t, err := acl.ParseType(aclType)
	if err != nil {
		return err
	}
	a, err := acl.Parse(args[2])
	if err != nil {
		return err
	}
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	if err := cmdutil.Client().SetACL(contextOf(cmd), args[0], args[1], t, a); err != nil {
		return err
	}
	p.Success(fmt.Sprintf("%s ACL of %s updated (%d entries)", t, args[1], len(a)))
	return nil
}

func runRmDefault(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Remove the default ACL of %s on %s", args[1], args[0]), forceRmDef)
	if err != nil {
		if prompt.IsAborted(err) {
			return nil
		}
		return err
	}
	if !ok {
		p.Println("Aborted.")
		return nil
	}
	if err := cmdutil.Client().DeleteDefaultACL(contextOf(cmd), args[0], args[1]); err != nil {
		return err
	}
	p.Success(fmt.Sprintf("default ACL of %s removed", args[1]))
	return nil
}
