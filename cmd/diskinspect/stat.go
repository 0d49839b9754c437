package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <image> <path>",
		Short: "Show one entry's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, closeVol, err := openVolume(args[0])
			if err != nil {
				return err
			}
			defer closeVol()

			entry, err := vol.Stat(args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Name:         %s\n", entry.Name)
			fmt.Printf("Directory:    %v\n", entry.IsDir)
			fmt.Printf("Size:         %s (%d bytes)\n", humanize.Bytes(entry.Size), entry.Size)
			fmt.Printf("Created:      %s\n", entry.Created)
			fmt.Printf("Modified:     %s\n", entry.Modified)
			fmt.Printf("Flags:        0x%02X\n", entry.Flags)
			fmt.Printf("Cluster/FRN:  %d\n", entry.FirstCluster)
			fmt.Printf("Sector:       %d\n", entry.Sector)
			return nil
		},
	}
}
