package pngchunk_test

import (
	"hash/crc32"
	"testing"

	"tapedeck/internal/pngchunk"
)

func TestChecksumKnownVectors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  uint32
	}{
		{"empty", "", 0x00000000},
		{"check", "123456789", 0xCBF43926},
		{"iend", "IEND", 0xAE426082},
		{"single", "a", 0xE8B7BE43},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pngchunk.Checksum([]byte(tc.input)); got != tc.want {
				t.Fatalf("Checksum(%q) = %08x, want %08x", tc.input, got, tc.want)
			}
		})
	}
}

func TestChecksumMatchesStandardLibrary(t *testing.T) {
	buf := make([]byte, 4096)
	for i := range buf {
		buf[i] = byte(i*31 + i/7)
	}
	for _, n := range []int{0, 1, 3, 255, 256, 1000, len(buf)} {
		got := pngchunk.Checksum(buf[:n])
		want := crc32.ChecksumIEEE(buf[:n])
		if got != want {
			t.Fatalf("len %d: got %08x want %08x", n, got, want)
		}
	}
}

func TestUpdateMatchesConcatenation(t *testing.T) {
	head := []byte("tEXt")
	tail := []byte("keyword\x00value")
	whole := append(append([]byte{}, head...), tail...)

	incremental := pngchunk.Update(pngchunk.Checksum(head), tail)
	if incremental != pngchunk.Checksum(whole) {
		t.Fatalf("incremental %08x != whole %08x", incremental, pngchunk.Checksum(whole))
	}
}
