package fat32

import (
	"encoding/binary"
)

// testImage is a from-scratch, minimal but structurally valid FAT32 volume:
// one FAT, one sector per cluster, a single-cluster root directory holding
// one short-named file "HELLO.TXT" whose single-cluster content is "hello".
//
// Layout (sector numbers, 512 bytes each):
//
//	0       boot sector
//	32      FAT (reservedSectors)
//	33      root directory, cluster 2
//	34      file content, cluster 3
func testImage() []byte {
	const (
		bytesPerSector    = 512
		sectorsPerCluster = 1
		reservedSectors   = 32
		numFATs           = 1
		sectorsPerFAT     = 1
		rootCluster       = 2
		totalSectors      = 64
	)

	img := make([]byte, totalSectors*bytesPerSector)

	// Boot sector.
	boot := img[0:512]
	boot[0], boot[1], boot[2] = 0xEB, 0x58, 0x90
	binary.LittleEndian.PutUint16(boot[11:13], bytesPerSector)
	boot[13] = sectorsPerCluster
	binary.LittleEndian.PutUint16(boot[14:16], reservedSectors)
	boot[16] = numFATs
	// RootEntryCount (17:19), TotalSectors16 (19:21) stay 0 - FAT32 shape.
	boot[21] = 0xF8 // media
	// FATSize16 (22:24) stays 0 - FAT32 shape.
	binary.LittleEndian.PutUint32(boot[32:36], totalSectors) // TotalSectors32
	binary.LittleEndian.PutUint32(boot[36:40], sectorsPerFAT) // FATSize32
	binary.LittleEndian.PutUint32(boot[44:48], rootCluster)   // RootCluster
	copy(boot[71:82], "NO NAME    ")                          // BSVolumeLabel
	boot[510], boot[511] = 0x55, 0xAA

	// FAT, first copy at sector reservedSectors.
	fat := img[reservedSectors*bytesPerSector : (reservedSectors+sectorsPerFAT)*bytesPerSector]
	binary.LittleEndian.PutUint32(fat[0:4], 0x0FFFFFF8)  // media id entry
	binary.LittleEndian.PutUint32(fat[4:8], 0x0FFFFFFF)  // reserved entry
	binary.LittleEndian.PutUint32(fat[8:12], 0x0FFFFFFF) // cluster 2 (root dir): EOF
	binary.LittleEndian.PutUint32(fat[12:16], 0x0FFFFFFF) // cluster 3 (file): EOF

	firstDataSector := reservedSectors + numFATs*sectorsPerFAT

	// Root directory, cluster 2 -> sector firstDataSector.
	rootSector := img[firstDataSector*bytesPerSector : (firstDataSector+1)*bytesPerSector]
	entry := rootSector[0:32]
	copy(entry[0:11], "HELLO   TXT")
	entry[11] = AttrArchive
	binary.LittleEndian.PutUint16(entry[20:22], 0)          // FirstClusterHI
	binary.LittleEndian.PutUint16(entry[26:28], 3)          // FirstClusterLO
	binary.LittleEndian.PutUint32(entry[28:32], 5)          // FileSize

	// File content, cluster 3 -> sector firstDataSector+1.
	fileSector := img[(firstDataSector+1)*bytesPerSector : (firstDataSector+2)*bytesPerSector]
	copy(fileSector, "hello")

	return img
}
