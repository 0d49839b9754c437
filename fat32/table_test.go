package fat32

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
)

func TestFatTable_chain(t *testing.T) {
	backend, err := Open(blockio.FromBytes(testImage()))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	clusters, err := backend.table.chain(3)
	if err != nil {
		t.Fatalf("chain() unexpected error: %v", err)
	}
	if len(clusters) != 1 || clusters[0] != 3 {
		t.Errorf("chain(3) = %v, want [3]", clusters)
	}
}

// TestFatTable_chain_multiCluster follows a three-cluster chain
// 2 -> 3 -> 4 -> EOF and checks every index comes back in order.
func TestFatTable_chain_multiCluster(t *testing.T) {
	img := testImage()

	fat := img[32*512 : 33*512]
	binary.LittleEndian.PutUint32(fat[8:12], 3)           // cluster 2 -> 3
	binary.LittleEndian.PutUint32(fat[12:16], 4)          // cluster 3 -> 4
	binary.LittleEndian.PutUint32(fat[16:20], 0x0FFFFFFF) // cluster 4: EOF

	backend, err := Open(blockio.FromBytes(img))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	clusters, err := backend.table.chain(2)
	if err != nil {
		t.Fatalf("chain() unexpected error: %v", err)
	}
	want := []uint32{2, 3, 4}
	if len(clusters) != len(want) {
		t.Fatalf("chain(2) = %v, want %v", clusters, want)
	}
	for i := range want {
		if clusters[i] != want[i] {
			t.Fatalf("chain(2) = %v, want %v", clusters, want)
		}
	}
}

// TestFatTable_chain_badClusterTerminates: an 0x0FFFFFF7 entry ends the
// chain like an EOF mark rather than being followed as a data cluster.
func TestFatTable_chain_badClusterTerminates(t *testing.T) {
	img := testImage()

	fat := img[32*512 : 33*512]
	binary.LittleEndian.PutUint32(fat[8:12], 0x0FFFFFF7) // cluster 2 marked bad

	backend, err := Open(blockio.FromBytes(img))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	clusters, err := backend.table.chain(2)
	if err != nil {
		t.Fatalf("chain() unexpected error: %v", err)
	}
	if len(clusters) != 1 || clusters[0] != 2 {
		t.Fatalf("chain(2) = %v, want [2]", clusters)
	}
}

func TestFatTable_chain_cycleDetected(t *testing.T) {
	img := testImage()

	// Make cluster 2 point to cluster 3 and cluster 3 point back to cluster
	// 2, forming a cycle that never reaches an EOF marker.
	fat := img[32*512 : 33*512]
	binary.LittleEndian.PutUint32(fat[8:12], 3)
	binary.LittleEndian.PutUint32(fat[12:16], 2)

	backend, err := Open(blockio.FromBytes(img))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	_, err = backend.table.chain(2)
	if !errors.Is(err, ErrChainCycle) {
		t.Fatalf("chain() error = %v, want wrapping ErrChainCycle", err)
	}
}
