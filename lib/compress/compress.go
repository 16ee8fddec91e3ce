// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// BlockTag identifies the algorithm used for a single block. Tags are
// stored as the first byte of every encoded block (wire constants).
type BlockTag uint8

const (
	// BlockRaw stores the block bytes verbatim. Chosen whenever no
	// codec produces a smaller payload, so encoding never inflates a
	// block by more than its framing overhead.
	BlockRaw BlockTag = 0

	// BlockHuffman is the in-package canonical Huffman coder. Usually
	// wins on text and other byte-skewed data.
	BlockHuffman BlockTag = 1

	// BlockLZ4 is LZ4 block compression. Wins when the block has
	// repeated sequences that a pure entropy coder cannot exploit.
	BlockLZ4 BlockTag = 2

	// BlockZstd is zstd at the default level. Wins on structured data
	// where both matching and entropy coding pay off.
	BlockZstd BlockTag = 3
)

// String returns the human-readable name of a block tag.
func (tag BlockTag) String() string {
	switch tag {
	case BlockRaw:
		return "raw"
	case BlockHuffman:
		return "huffman"
	case BlockLZ4:
		return "lz4"
	case BlockZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// blockSize is the maximum number of input bytes per block. Blocks are
// encoded independently, which bounds decoder allocations and lets
// both directions run one block per worker.
const blockSize = 64 * 1024

// zstdEncoder and zstdDecoder are shared across calls to avoid
// repeated initialization. Both are safe for concurrent use. The
// encoder is pinned to one internal goroutine so that EncodeAll output
// depends only on the input bytes. The decoder memory limit is far
// above any legitimate block but stops crafted frames from allocating
// unboundedly before the length check.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(2<<20),
	)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress encodes data as a sequence of independently compressed
// blocks, each prefixed with its encoded length as a uvarint. The
// output is deterministic: the same input always yields the same
// bytes. Empty input yields empty output.
//
// The returned error is reserved for unrecoverable allocation
// exhaustion; no input byte sequence is itself invalid.
func Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	blockCount := (len(data) + blockSize - 1) / blockSize
	encoded := make([][]byte, blockCount)

	// Encode blocks on a bounded set of workers. Results land in
	// per-index slots, so output assembly preserves block order no
	// matter how the workers interleave.
	workers := runtime.GOMAXPROCS(0)
	if workers > blockCount {
		workers = blockCount
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				start := i * blockSize
				end := start + blockSize
				if end > len(data) {
					end = len(data)
				}
				encoded[i] = encodeBlock(data[start:end])
			}
		}()
	}
	for i := 0; i < blockCount; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	total := 0
	for _, block := range encoded {
		total += binary.MaxVarintLen64 + len(block)
	}
	out := make([]byte, 0, total)
	var lengthBytes [binary.MaxVarintLen64]byte
	for _, block := range encoded {
		n := binary.PutUvarint(lengthBytes[:], uint64(len(block)))
		out = append(out, lengthBytes[:n]...)
		out = append(out, block...)
	}
	return out, nil
}

// Decompress reverses Compress. The originalSize must match the
// pre-compression input length exactly; a mismatch — like every other
// structural defect in the stream — is an error. Empty input with
// originalSize zero yields an empty sequence.
func Decompress(data []byte, originalSize int) ([]byte, error) {
	if len(data) == 0 {
		if originalSize != 0 {
			return nil, fmt.Errorf("empty stream cannot produce %d bytes", originalSize)
		}
		return []byte{}, nil
	}
	if originalSize < 0 {
		return nil, fmt.Errorf("negative expected size %d", originalSize)
	}

	// First pass: walk the length prefixes to find block boundaries.
	type span struct{ start, end int }
	var spans []span
	pos := 0
	for pos < len(data) {
		blockLen, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			return nil, fmt.Errorf("invalid block length prefix at offset %d", pos)
		}
		start := pos + n
		if blockLen == 0 || blockLen > uint64(len(data)-start) {
			return nil, fmt.Errorf("block at offset %d declares %d bytes, %d remain", pos, blockLen, len(data)-start)
		}
		end := start + int(blockLen)
		spans = append(spans, span{start: start, end: end})
		pos = end
	}

	// The encoder always emits ceil(originalSize / blockSize) blocks,
	// so the block count is itself part of the structure. Checking it
	// before decoding also bounds decoder memory by the expected size.
	expectedBlocks := (originalSize + blockSize - 1) / blockSize
	if len(spans) != expectedBlocks {
		return nil, fmt.Errorf("stream has %d blocks, expected %d for %d bytes", len(spans), expectedBlocks, originalSize)
	}

	// Second pass: decode blocks in parallel, preserving order.
	decoded := make([][]byte, len(spans))
	errs := make([]error, len(spans))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(spans) {
		workers = len(spans)
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				decoded[i], errs[i] = decodeBlock(data[spans[i].start:spans[i].end])
			}
		}()
	}
	for i := range spans {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	total := 0
	for i := range spans {
		if errs[i] != nil {
			return nil, fmt.Errorf("block %d: %w", i, errs[i])
		}
		total += len(decoded[i])
	}
	if total != originalSize {
		return nil, fmt.Errorf("decompressed to %d bytes, expected %d", total, originalSize)
	}

	out := make([]byte, 0, total)
	for _, part := range decoded {
		out = append(out, part...)
	}
	return out, nil
}

// encodeBlock encodes one block of at most blockSize bytes. Every
// candidate codec runs on every block and the smallest payload wins;
// raw storage caps the worst case. The candidate order is fixed and
// comparisons are strict, so the choice is deterministic.
func encodeBlock(block []byte) []byte {
	bestTag := BlockRaw
	var bestPayload []byte

	consider := func(tag BlockTag, payload []byte) {
		if payload == nil {
			return
		}
		if bestPayload == nil || len(payload) < len(bestPayload) {
			bestTag = tag
			bestPayload = payload
		}
	}

	consider(BlockHuffman, huffEncode(block))
	consider(BlockLZ4, lz4Encode(block))
	consider(BlockZstd, zstdEncode(block))

	if bestPayload == nil {
		out := make([]byte, 0, 1+len(block))
		out = append(out, byte(BlockRaw))
		return append(out, block...)
	}

	var lengthBytes [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lengthBytes[:], uint64(len(block)))
	out := make([]byte, 0, 1+n+len(bestPayload))
	out = append(out, byte(bestTag))
	out = append(out, lengthBytes[:n]...)
	return append(out, bestPayload...)
}

// decodeBlock decodes one framed block: tag byte, then for compressed
// tags a uvarint original size and the codec payload, for raw the
// bytes themselves. The declared size is validated against blockSize
// before any decompression runs.
func decodeBlock(block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("empty block")
	}
	tag := BlockTag(block[0])
	rest := block[1:]

	if tag == BlockRaw {
		if len(rest) == 0 {
			return nil, fmt.Errorf("raw block with no payload")
		}
		if len(rest) > blockSize {
			return nil, fmt.Errorf("raw block of %d bytes exceeds block size %d", len(rest), blockSize)
		}
		out := make([]byte, len(rest))
		copy(out, rest)
		return out, nil
	}

	originalLen, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("invalid original-size prefix in %s block", tag)
	}
	if originalLen == 0 || originalLen > blockSize {
		return nil, fmt.Errorf("%s block declares original size %d outside (0, %d]", tag, originalLen, blockSize)
	}
	payload := rest[n:]

	switch tag {
	case BlockHuffman:
		return huffDecode(payload, int(originalLen))
	case BlockLZ4:
		return lz4Decode(payload, int(originalLen))
	case BlockZstd:
		return zstdDecode(payload, int(originalLen))
	default:
		return nil, fmt.Errorf("unknown block tag %d", uint8(tag))
	}
}

// lz4Encode returns the LZ4 block compression of data, or nil when
// LZ4 cannot make it smaller.
func lz4Encode(data []byte) []byte {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)
	written, err := lz4.CompressBlock(data, destination, nil)
	// CompressBlock returns 0 (with no error) for incompressible data.
	if err != nil || written == 0 || written >= len(data) {
		return nil
	}
	return destination[:written]
}

func lz4Decode(payload []byte, originalLen int) ([]byte, error) {
	destination := make([]byte, originalLen)
	read, err := lz4.UncompressBlock(payload, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != originalLen {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, originalLen)
	}
	return destination, nil
}

// zstdEncode returns the zstd compression of data, or nil when zstd
// cannot make it smaller.
func zstdEncode(data []byte) []byte {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil
	}
	return compressed
}

func zstdDecode(payload []byte, originalLen int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, originalLen))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != originalLen {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), originalLen)
	}
	return result, nil
}
