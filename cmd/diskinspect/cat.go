package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print a file's content, decoded as UTF-8 with replacement characters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vol, closeVol, err := openVolume(args[0])
			if err != nil {
				return err
			}
			defer closeVol()

			text, err := vol.ReadText(args[1])
			if err != nil {
				return err
			}

			fmt.Print(text)
			return nil
		},
	}
}
