package blockio

import (
	"bytes"
	"errors"
	"testing"
)

func TestReader_ReadAt(t *testing.T) {
	data := []byte("hello world, this is a test volume")

	tests := []struct {
		name    string
		offset  int64
		length  int
		want    []byte
		wantErr error
	}{
		{
			name:   "reads a slice from the middle",
			offset: 6,
			length: 5,
			want:   []byte("world"),
		},
		{
			name:    "offset past end fails with ErrRange",
			offset:  1000,
			length:  1,
			wantErr: ErrRange,
		},
		{
			name:    "length overruns volume size fails with ErrRange",
			offset:  int64(len(data) - 2),
			length:  10,
			wantErr: ErrRange,
		},
		{
			name:    "negative offset fails with ErrRange",
			offset:  -1,
			length:  1,
			wantErr: ErrRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(bytes.NewReader(data), int64(len(data)))
			got, err := r.ReadAt(tt.offset, tt.length)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadAt() error = %v, want wrapping %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAt() unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("ReadAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReader_Size(t *testing.T) {
	data := []byte("1234567890")
	r := New(bytes.NewReader(data), int64(len(data)))
	if r.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", r.Size())
	}
}

func TestFromBytes(t *testing.T) {
	data := []byte("synthetic volume contents")
	r := FromBytes(data)

	if r.Size() != int64(len(data)) {
		t.Fatalf("Size() = %d, want %d", r.Size(), len(data))
	}

	got, err := r.ReadAt(10, 6)
	if err != nil {
		t.Fatalf("ReadAt() unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("volume")) {
		t.Fatalf("ReadAt() = %q, want %q", got, "volume")
	}
}
