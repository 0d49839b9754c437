package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <image>",
		Short: "Print the volume's geometry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, closeVol, err := openVolume(args[0])
			if err != nil {
				return err
			}
			defer closeVol()

			geo := vol.Describe()

			fmt.Printf("Filesystem:          %s\n", strings.TrimSpace(geo.FSType))
			fmt.Printf("Bytes per sector:    %d\n", geo.BytesPerSector)
			fmt.Printf("Sectors per cluster: %d\n", geo.SectorsPerCluster)
			fmt.Printf("Volume size:         %s\n", humanize.Bytes(geo.VolumeSize))

			if strings.TrimSpace(geo.FSType) == "FAT32" {
				fmt.Printf("Reserved sectors:    %d\n", geo.ReservedSectors)
				fmt.Printf("Sectors per FAT:     %d\n", geo.SectorsPerFAT)
				fmt.Printf("Number of FATs:      %d\n", geo.NumFATs)
				fmt.Printf("Root cluster (RDET): %d\n", geo.RootCluster)
				fmt.Printf("First data sector:   %d\n", geo.DataStartSector)
			} else {
				fmt.Printf("Serial number:       %s\n", geo.SerialNumber)
				fmt.Printf("MFT cluster:         %d\n", geo.MFTCluster)
				fmt.Printf("MFT mirror cluster:  %d\n", geo.MFTMirrorCluster)
				fmt.Printf("MFT record size:     %d\n", geo.RecordSize)
			}
			return nil
		},
	}
}
