// Package acl implements the POSIX ACL commands of volbridge.
package acl

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/acl"
)

// Cmd is the parent command for ACL operations.
var Cmd = &cobra.Command{
	Use:   "acl",
	Short: "Read and write POSIX ACLs",
	Long: `Read and write the POSIX ACLs of files on a share, or convert between
the short text form and the encoded xattr value.

get, set and rm-default talk to a running server. decode and encode work
offline.

Examples:
  # Show the access ACL of a file
  volbridge acl get docs /projects/plan.txt

  # Replace the default ACL of a directory
  volbridge acl set docs /projects "user::rwx,group::r-x,other::---" --type default

  # Drop a directory's default ACL
  volbridge acl rm-default docs /projects

  # Decode a raw xattr value
  volbridge acl decode 0200000001000600ffffffff04000400ffffffff20000400ffffffff`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(rmDefaultCmd)
	Cmd.AddCommand(decodeCmd)
	Cmd.AddCommand(encodeCmd)
}

// entryTable renders ACL entries as a table.
func entryTable(a acl.ACL) *output.Table {
	t := output.NewTable("TAG", "QUALIFIER", "PERMS")
	for _, e := range a {
		q := ""
		if e.Tag.HasID() {
			q = strconv.FormatUint(uint64(e.ID), 10)
		}
		t.AddRow(e.Tag.String(), q, e.Perm.String())
	}
	return t
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
