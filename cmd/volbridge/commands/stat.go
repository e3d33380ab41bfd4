package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/stat"
)

var statNoFollow bool

var statCmd = &cobra.Command{
	Use:   "stat <share> [path]",
	Short: "Show file metadata",
	Long: `Show the metadata a share reports for a path. The path is relative to
the share root and defaults to "/".

Examples:
  volbridge stat docs /projects/plan.txt
  volbridge stat docs /link --nofollow -o json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStat,
}

func init() {
	statCmd.Flags().BoolVar(&statNoFollow, "nofollow", false, "Do not follow a trailing symlink")
}

func formatTimespec(ts stat.Timespec) string {
	return ts.Time().Format(time.RFC3339Nano)
}

func statView(path string, ex stat.Ex) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Path", path)
	kv.Add("Mode", fmt.Sprintf("%s (%04o)", ex.FileMode(), ex.Mode&0o7777))
	kv.Add("Size", strconv.FormatInt(ex.Size, 10))
	kv.Add("Blocks", fmt.Sprintf("%d (block size %d)", ex.Blocks, ex.Blksize))
	kv.Add("Inode", strconv.FormatUint(ex.Ino, 10))
	kv.Add("Device", strconv.FormatUint(ex.Dev, 10))
	kv.Add("Links", strconv.FormatUint(ex.Nlink, 10))
	kv.Add("Owner", fmt.Sprintf("%d:%d", ex.UID, ex.GID))
	kv.Add("Access", formatTimespec(ex.Atime))
	kv.Add("Modify", formatTimespec(ex.Mtime))
	kv.Add("Change", formatTimespec(ex.Ctime))
	kv.Add("Birth", formatTimespec(ex.Btime))
	return kv
}

func runStat(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	path := "/"
	if len(args) > 1 {
		path = args[1]
	}
	ex, err := cmdutil.Client().Stat(contextOf(cmd), args[0], path, statNoFollow)
	if err != nil {
		return err
	}
	return p.PrintView(statView(path, ex), ex)
}
