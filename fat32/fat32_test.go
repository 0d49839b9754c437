package fat32

import (
	"testing"

	"github.com/Triszz/Project-2-NTFS-FAT32/blockio"
)

func TestOpen_listAndReadFile(t *testing.T) {
	backend, err := Open(blockio.FromBytes(testImage()))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	root := backend.RootEntry()
	if !root.IsDir {
		t.Fatalf("RootEntry().IsDir = false, want true")
	}

	entries, err := backend.List(root)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}
	if entries[0].Name != "HELLO.TXT" {
		t.Errorf("entries[0].Name = %q, want %q", entries[0].Name, "HELLO.TXT")
	}

	found, err := backend.Lookup(root, "hello.txt")
	if err != nil {
		t.Fatalf("Lookup() unexpected error: %v", err)
	}

	content, err := backend.ReadFile(found)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("ReadFile() = %q, want %q", content, "hello")
	}
}

func TestLookup_notFound(t *testing.T) {
	backend, err := Open(blockio.FromBytes(testImage()))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	_, err = backend.Lookup(backend.RootEntry(), "missing.txt")
	if err == nil {
		t.Fatalf("Lookup() expected error for missing entry, got nil")
	}
}

func TestReadFile_onDirectory(t *testing.T) {
	backend, err := Open(blockio.FromBytes(testImage()))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	_, err = backend.ReadFile(backend.RootEntry())
	if err == nil {
		t.Fatalf("ReadFile() on a directory expected an error, got nil")
	}
}
