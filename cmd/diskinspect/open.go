package main

import (
	"os"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
	"github.com/Triszz/Project-2-NTFS-FAT32/diskfs"
)

// openVolume opens imagePath read-only and mounts it as a Volume, returning
// a closer the caller must run once done with it.
func openVolume(imagePath string) (*diskfs.Volume, func() error, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	br := blockio.New(f, info.Size())

	vol, err := diskfs.Open(br)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	return vol, f.Close, nil
}
