// Command diskinspect is the read-only browser/CLI collaborator the core
// library is written against: it opens a FAT32 or NTFS image and exposes
// ls/stat/cat/describe over it. It never mutates the image - every
// subcommand maps directly onto a diskfs.Volume method.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "diskinspect <command> <image> [args...]",
		Short:         "diskinspect - read-only FAT32/NTFS volume inspector",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newLsCmd())
	root.AddCommand(newStatCmd())
	root.AddCommand(newCatCmd())
	root.AddCommand(newDescribeCmd())

	return root
}
