package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/volbridge/cmd/volbridge/cmdutil"
	"github.com/marmos91/volbridge/internal/bytesize"
	"github.com/marmos91/volbridge/internal/cli/output"
	"github.com/marmos91/volbridge/pkg/api/handlers"
	"github.com/marmos91/volbridge/pkg/vfs"
)

var dfStatvfs bool

var dfCmd = &cobra.Command{
	Use:   "df <share> [path]",
	Short: "Show free space of a share",
	Long: `Show the space available on the volume behind a share.

By default only the block size, free and total blocks are shown, as a
file server reports them to clients. --statvfs prints the full file
system summary instead.

Examples:
  volbridge df docs
  volbridge df docs /projects --statvfs`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDF,
}

func init() {
	dfCmd.Flags().BoolVar(&dfStatvfs, "statvfs", false, "Print the full file system summary")
}

func dfView(df handlers.DiskFreeResponse) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Block size", strconv.FormatUint(df.BlockSize, 10))
	kv.Add("Total", blocksString(df.TotalBlocks, df.BlockSize))
	kv.Add("Available", blocksString(df.BlocksAvail, df.BlockSize))
	return kv
}

func statvfsView(st vfs.Statvfs) output.KeyValues {
	var kv output.KeyValues
	kv.Add("Block size", strconv.FormatUint(st.BlockSize, 10))
	kv.Add("Fragment size", strconv.FormatUint(st.OptimalTransferSize, 10))
	kv.Add("Total", blocksString(st.TotalBlocks, st.BlockSize))
	kv.Add("Free", blocksString(st.BlocksAvail, st.BlockSize))
	kv.Add("Available", blocksString(st.UserBlocksAvail, st.BlockSize))
	kv.Add("Inodes", strconv.FormatUint(st.TotalFileNodes, 10))
	kv.Add("Free inodes", strconv.FormatUint(st.FreeFileNodes, 10))
	kv.Add("FS id", strconv.FormatUint(st.FsIdentifier, 16))
	kv.Add("Capabilities", st.FsCapabilities.String())
	return kv
}

func blocksString(blocks, bsize uint64) string {
	return strconv.FormatUint(blocks, 10) + " (" + bytesize.ByteSize(blocks*bsize).String() + ")"
}

func runDF(cmd *cobra.Command, args []string) error {
	p, err := cmdutil.Printer()
	if err != nil {
		return err
	}
	path := "/"
	if len(args) > 1 {
		path = args[1]
	}
	client := cmdutil.Client()
	ctx := contextOf(cmd)

	if dfStatvfs {
		st, err := client.Statvfs(ctx, args[0], path)
		if err != nil {
			return err
		}
		return p.PrintView(statvfsView(st), st)
	}

	df, err := client.DiskFree(ctx, args[0], path)
	if err != nil {
		return err
	}
	return p.PrintView(dfView(df), df)
}
