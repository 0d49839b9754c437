package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory's entries",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}

			vol, closeVol, err := openVolume(args[0])
			if err != nil {
				return err
			}
			defer closeVol()

			entries, err := vol.List(path)
			if err != nil {
				return err
			}

			for _, e := range entries {
				kind := "-"
				if e.IsDir {
					kind = "d"
				}
				fmt.Printf("%s %10s  %s  %s\n", kind, humanize.Bytes(e.Size), e.Modified.Format("2006-01-02 15:04:05"), e.Name)
			}
			return nil
		},
	}
}
