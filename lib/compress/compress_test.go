// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"testing"
)

// roundTrip compresses data, decompresses the result, and fails the
// test on any error or mismatch.
func roundTrip(t *testing.T, data []byte) []byte {
	t.Helper()

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	decompressed, err := Decompress(compressed, len(data))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatalf("roundtrip mismatch: got %d bytes, want %d", len(decompressed), len(data))
	}
	return compressed
}

func TestRoundTripEmpty(t *testing.T) {
	compressed := roundTrip(t, nil)
	if len(compressed) != 0 {
		t.Errorf("compressing empty input produced %d bytes, want 0", len(compressed))
	}
}

func TestRoundTripSmall(t *testing.T) {
	roundTrip(t, []byte("hello world"))
	roundTrip(t, []byte("a"))
	roundTrip(t, []byte{0x00})
	roundTrip(t, []byte{0xFF, 0x00, 0xFF})
}

func TestRoundTripSingleSymbol(t *testing.T) {
	// One distinct byte value exercises the degenerate one-leaf
	// Huffman tree (a single 1-bit code).
	data := bytes.Repeat([]byte{'a'}, blockSize)
	compressed := roundTrip(t, data)
	if len(compressed) >= len(data) {
		t.Errorf("single-symbol block did not compress: %d -> %d bytes", len(data), len(compressed))
	}
}

func TestRoundTripExactBlockBoundaries(t *testing.T) {
	for _, size := range []int{blockSize - 1, blockSize, blockSize + 1, 3*blockSize + 123} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			data := make([]byte, size)
			for i := range data {
				data[i] = byte(i % 251)
			}
			roundTrip(t, data)
		})
	}
}

func TestRoundTripAllByteValues(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	roundTrip(t, data)
}

func TestRoundTripIncompressible(t *testing.T) {
	data := make([]byte, 2*blockSize)
	rand.Read(data)
	compressed := roundTrip(t, data)

	// Raw fallback: expansion is bounded by the per-block framing
	// (tag byte plus length prefix per block).
	overhead := len(compressed) - len(data)
	maxOverhead := 2 * (1 + binary.MaxVarintLen64)
	if overhead > maxOverhead {
		t.Errorf("incompressible data expanded by %d bytes, want at most %d", overhead, maxOverhead)
	}
}

func TestRoundTripCompressibleText(t *testing.T) {
	line := []byte("status=ok method=GET path=/v1/buffers latency_ms=12\n")
	data := bytes.Repeat(line, 4000)
	compressed := roundTrip(t, data)
	if len(compressed) >= len(data)/2 {
		t.Errorf("repetitive text compressed poorly: %d -> %d bytes", len(data), len(compressed))
	}
}

func TestCompressDeterministic(t *testing.T) {
	data := make([]byte, 3*blockSize+57)
	for i := range data {
		data[i] = byte((i * 31) % 211)
	}

	first, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	second, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Compress produced different output for identical input")
	}
}

func TestDecompressEmptyStream(t *testing.T) {
	out, err := Decompress(nil, 0)
	if err != nil {
		t.Fatalf("Decompress(empty, 0) failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Decompress(empty, 0) = %d bytes, want 0", len(out))
	}

	if _, err := Decompress(nil, 5); err == nil {
		t.Error("Decompress(empty, 5) should fail")
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	compressed, err := Compress([]byte("some data to compress"))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	for _, wrong := range []int{0, 1, 20, 22, 1000} {
		if _, err := Decompress(compressed, wrong); err == nil {
			t.Errorf("Decompress with wrong expected size %d should fail", wrong)
		}
	}
}

func TestDecompressMalformed(t *testing.T) {
	valid, err := Compress(bytes.Repeat([]byte("abc"), 100))
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		size int
	}{
		{"truncated varint", []byte{0x80}, 1},
		{"varint overflow", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, 1},
		{"block overruns stream", []byte{0x10, byte(BlockRaw), 'x'}, 1},
		{"zero-length block", []byte{0x00}, 1},
		{"unknown tag", []byte{0x02, 0x07, 'x'}, 1},
		{"raw block without payload", []byte{0x01, byte(BlockRaw)}, 1},
		{"truncated mid-stream", valid[:len(valid)-3], 300},
		{"extra trailing block", append(append([]byte{}, valid...), 0x02, byte(BlockRaw), 'x'), 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decompress(tt.data, tt.size); err == nil {
				t.Errorf("Decompress(%x) should fail", tt.data)
			}
		})
	}
}

func TestDecompressHugeDeclaredBlockSize(t *testing.T) {
	// A compressed block claiming an original size beyond blockSize
	// must be rejected before any codec runs.
	block := []byte{byte(BlockHuffman)}
	var sizeBytes [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(sizeBytes[:], blockSize+1)
	block = append(block, sizeBytes[:n]...)
	block = append(block, 0x00, 0x00)

	if _, err := decodeBlock(block); err == nil {
		t.Error("oversized declared block should fail")
	}
}

func TestBlockTagString(t *testing.T) {
	tests := []struct {
		tag  BlockTag
		want string
	}{
		{BlockRaw, "raw"},
		{BlockHuffman, "huffman"},
		{BlockLZ4, "lz4"},
		{BlockZstd, "zstd"},
		{BlockTag(99), "unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("BlockTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestEncodeBlockPicksSmallest(t *testing.T) {
	// Highly repetitive data: some codec must beat raw, so the block
	// must not carry the raw tag.
	data := bytes.Repeat([]byte("abcabc"), 2000)
	block := encodeBlock(data)
	if BlockTag(block[0]) == BlockRaw {
		t.Error("repetitive block stored raw")
	}

	// Random data: nothing beats raw.
	random := make([]byte, 4096)
	rand.Read(random)
	block = encodeBlock(random)
	if BlockTag(block[0]) != BlockRaw {
		t.Errorf("random block stored with tag %s, want raw", BlockTag(block[0]))
	}
}

func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("hello world"))
	f.Add([]byte{0x00, 0xFF, 0x00})
	f.Add(bytes.Repeat([]byte("seed"), 100))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 4*blockSize {
			t.Skip("input too large")
		}
		compressed, err := Compress(data)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		decompressed, err := Decompress(compressed, len(data))
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if !bytes.Equal(decompressed, data) {
			t.Fatal("roundtrip mismatch")
		}
	})
}

func FuzzDecompressMalformed(f *testing.F) {
	f.Add([]byte{0x80}, 10)
	f.Add([]byte{0x03, 0x01, 0x02, 0x00}, 2)
	f.Add([]byte{0x02, 0x00, 'x'}, 1)

	f.Fuzz(func(t *testing.T, data []byte, size int) {
		if size < 0 || size > 4*blockSize || len(data) > 4*blockSize {
			t.Skip("input too large")
		}
		// Arbitrary input must never panic; errors are expected.
		out, err := Decompress(data, size)
		if err == nil && len(out) != size {
			t.Errorf("Decompress returned %d bytes without error, expected %d", len(out), size)
		}
	})
}

func BenchmarkCompress(b *testing.B) {
	data := make([]byte, 4*blockSize)
	for i := range data {
		data[i] = byte(i % 97)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Compress(data)
	}
}

func BenchmarkDecompress(b *testing.B) {
	data := make([]byte, 4*blockSize)
	for i := range data {
		data[i] = byte(i % 97)
	}
	compressed, err := Compress(data)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Decompress(compressed, len(data))
	}
}
