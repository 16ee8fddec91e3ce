// Copyright 2026 The BSTSEAL Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Huffman format constants. These are wire constants — changing them
// breaks compatibility with previously compressed streams.
const (
	// maxCodeLength is the longest accepted Huffman code in bits. An
	// unlimited Huffman tree over a 64 KiB block cannot exceed depth
	// 23 (the worst case requires Fibonacci-distributed frequencies,
	// and F(25) already exceeds the block size), so no length-limiting
	// pass is needed — the encoder simply never produces longer codes,
	// and the decoder rejects them as malformed.
	maxCodeLength = 27

	// fastDecodeBits is the width of the table-driven decode lookup.
	// Codes of this length or shorter resolve in one table probe;
	// longer codes fall back to per-length canonical decoding.
	fastDecodeBits = 11

	fastTableSize = 1 << fastDecodeBits
)

// huffCode is one symbol's canonical code, MSB-aligned within length bits.
type huffCode struct {
	code   uint32
	length uint8
}

// fastDecodeEntry maps fastDecodeBits of lookahead to a decoded symbol.
// A zero length marks codes longer than the table width.
type fastDecodeEntry struct {
	symbol byte
	length uint8
}

// buildCodeLengths computes Huffman code lengths for the given symbol
// frequencies and returns them with the maximum length used. The tree
// is built with the two-queue merge over leaves sorted by (frequency,
// symbol), so identical input always produces identical lengths.
func buildCodeLengths(freqs *[256]uint32) (lengths [256]uint8, maxLength uint8) {
	type leaf struct {
		freq   uint32
		symbol int
	}

	leaves := make([]leaf, 0, 256)
	for symbol, freq := range freqs {
		if freq > 0 {
			leaves = append(leaves, leaf{freq: freq, symbol: symbol})
		}
	}

	switch len(leaves) {
	case 0:
		return lengths, 0
	case 1:
		// A single distinct symbol still needs one bit per occurrence
		// so the decoder can count symbols.
		lengths[leaves[0].symbol] = 1
		return lengths, 1
	}

	sort.Slice(leaves, func(i, j int) bool {
		if leaves[i].freq != leaves[j].freq {
			return leaves[i].freq < leaves[j].freq
		}
		return leaves[i].symbol < leaves[j].symbol
	})

	// Two-queue merge: leaves are consumed in sorted order, internal
	// nodes are created with non-decreasing weight, so the smallest
	// remaining node is always at the front of one of the two queues.
	// On equal weight the leaf is taken first — a fixed rule that keeps
	// the construction deterministic.
	leafCount := len(leaves)
	nodeCount := 2*leafCount - 1
	weight := make([]uint64, nodeCount)
	parent := make([]int32, nodeCount)
	for i := range leaves {
		weight[i] = uint64(leaves[i].freq)
	}

	nextLeaf := 0
	nextInternal := leafCount
	takeSmallest := func(created int) int {
		if nextLeaf < leafCount &&
			(nextInternal >= created || weight[nextLeaf] <= weight[nextInternal]) {
			nextLeaf++
			return nextLeaf - 1
		}
		nextInternal++
		return nextInternal - 1
	}

	for created := leafCount; created < nodeCount; created++ {
		first := takeSmallest(created)
		second := takeSmallest(created)
		weight[created] = weight[first] + weight[second]
		parent[first] = int32(created)
		parent[second] = int32(created)
	}

	// Depth of each node, walking from the root (last created) down.
	depth := make([]uint8, nodeCount)
	for i := nodeCount - 2; i >= 0; i-- {
		depth[i] = depth[parent[i]] + 1
	}
	for i, l := range leaves {
		lengths[l.symbol] = depth[i]
		if depth[i] > maxLength {
			maxLength = depth[i]
		}
	}
	return lengths, maxLength
}

// canonicalCodes assigns canonical Huffman codes from code lengths:
// shorter codes sort first, equal lengths sort by symbol value. Only
// valid for length sets satisfying the Kraft inequality (which
// validateLengths enforces on the decode path; the encoder's own
// lengths come from a real Huffman tree and always satisfy it).
func canonicalCodes(lengths *[256]uint8) [256]huffCode {
	var lengthCount [maxCodeLength + 1]uint32
	for _, length := range lengths {
		if length > 0 {
			lengthCount[length]++
		}
	}

	var nextCode [maxCodeLength + 1]uint32
	code := uint32(0)
	for bits := 1; bits <= maxCodeLength; bits++ {
		code = (code + lengthCount[bits-1]) << 1
		nextCode[bits] = code
	}

	var codes [256]huffCode
	for symbol := 0; symbol < 256; symbol++ {
		length := lengths[symbol]
		if length == 0 {
			continue
		}
		codes[symbol] = huffCode{code: nextCode[length], length: length}
		nextCode[length]++
	}
	return codes
}

// appendCodeTable serializes the code-length table: a little-endian
// uint16 count of coded symbols followed by (symbol, length) byte
// pairs in ascending symbol order.
func appendCodeTable(dst []byte, lengths *[256]uint8) []byte {
	count := 0
	for _, length := range lengths {
		if length > 0 {
			count++
		}
	}
	var countBytes [2]byte
	binary.LittleEndian.PutUint16(countBytes[:], uint16(count))
	dst = append(dst, countBytes[:]...)
	for symbol := 0; symbol < 256; symbol++ {
		if lengths[symbol] > 0 {
			dst = append(dst, byte(symbol), lengths[symbol])
		}
	}
	return dst
}

// parseCodeTable reads and validates a code-length table. Returns the
// lengths and the number of header bytes consumed. Rejects duplicate
// symbols, out-of-range lengths, and length sets that oversubscribe
// the code space (Kraft inequality violation) — any of these means
// the stream is malformed, not merely unlucky.
func parseCodeTable(data []byte) (lengths [256]uint8, consumed int, err error) {
	if len(data) < 2 {
		return lengths, 0, fmt.Errorf("huffman table truncated: %d bytes", len(data))
	}
	count := int(binary.LittleEndian.Uint16(data))
	if count == 0 || count > 256 {
		return lengths, 0, fmt.Errorf("huffman table has invalid symbol count %d", count)
	}
	consumed = 2 + 2*count
	if len(data) < consumed {
		return lengths, 0, fmt.Errorf("huffman table truncated: need %d bytes, have %d", consumed, len(data))
	}

	var kraftSum uint64
	for i := 0; i < count; i++ {
		symbol := data[2+2*i]
		length := data[3+2*i]
		if length == 0 || length > maxCodeLength {
			return lengths, 0, fmt.Errorf("huffman code length %d for symbol %d out of range [1, %d]",
				length, symbol, maxCodeLength)
		}
		if lengths[symbol] != 0 {
			return lengths, 0, fmt.Errorf("huffman table repeats symbol %d", symbol)
		}
		lengths[symbol] = length
		kraftSum += 1 << (maxCodeLength - length)
	}
	if kraftSum > 1<<maxCodeLength {
		return lengths, 0, fmt.Errorf("huffman code lengths oversubscribe the code space")
	}
	return lengths, consumed, nil
}

// huffDecoder holds the decode structures for one code table: a flat
// lookup table for short codes and per-length canonical bounds for the
// rest.
type huffDecoder struct {
	fast [fastTableSize]fastDecodeEntry

	// Canonical decode state, indexed by code length: the first code
	// of each length, how many codes have that length, and where the
	// symbols of that length start in the sorted symbol list.
	firstCode    [maxCodeLength + 1]uint32
	lengthCount  [maxCodeLength + 1]uint32
	symbolOffset [maxCodeLength + 1]uint32
	symbols      []byte
}

func newHuffDecoder(lengths *[256]uint8) *huffDecoder {
	decoder := &huffDecoder{}
	codes := canonicalCodes(lengths)

	for _, length := range lengths {
		if length > 0 {
			decoder.lengthCount[length]++
		}
	}
	code := uint32(0)
	offset := uint32(0)
	for bits := 1; bits <= maxCodeLength; bits++ {
		code = (code + decoder.lengthCount[bits-1]) << 1
		decoder.firstCode[bits] = code
		decoder.symbolOffset[bits] = offset
		offset += decoder.lengthCount[bits]
	}

	// Symbols in canonical order: by length, then by symbol value.
	// Ascending symbol iteration plus stable per-length append gives
	// exactly that order.
	decoder.symbols = make([]byte, 0, offset)
	for bits := uint8(1); bits <= maxCodeLength; bits++ {
		for symbol := 0; symbol < 256; symbol++ {
			if lengths[symbol] == bits {
				decoder.symbols = append(decoder.symbols, byte(symbol))
			}
		}
	}

	for symbol := 0; symbol < 256; symbol++ {
		hc := codes[symbol]
		if hc.length == 0 || hc.length > fastDecodeBits {
			continue
		}
		span := 1 << (fastDecodeBits - hc.length)
		start := int(hc.code) << (fastDecodeBits - hc.length)
		for i := 0; i < span; i++ {
			decoder.fast[start+i] = fastDecodeEntry{symbol: byte(symbol), length: hc.length}
		}
	}
	return decoder
}

// decodeSymbol reads one symbol from the bit reader using the
// per-length canonical bounds. Used when fewer than fastDecodeBits
// remain or the code is longer than the fast table covers.
func (d *huffDecoder) decodeSymbol(reader *bitReader) (byte, error) {
	code := uint32(0)
	for bits := 1; bits <= maxCodeLength; bits++ {
		bit, ok := reader.readBit()
		if !ok {
			return 0, fmt.Errorf("huffman bitstream truncated mid-symbol")
		}
		code = code<<1 | bit
		count := d.lengthCount[bits]
		if count > 0 && code >= d.firstCode[bits] && code-d.firstCode[bits] < count {
			return d.symbols[d.symbolOffset[bits]+code-d.firstCode[bits]], nil
		}
	}
	return 0, fmt.Errorf("huffman code outside the coded alphabet")
}

// huffEncode compresses block with canonical Huffman coding. Returns
// nil when the block cannot benefit: the coded output (table included)
// is not smaller than the input, or — in theory only, given the block
// size bound — a code would exceed maxCodeLength.
func huffEncode(block []byte) []byte {
	var freqs [256]uint32
	for _, b := range block {
		freqs[b]++
	}

	lengths, maxLength := buildCodeLengths(&freqs)
	if maxLength == 0 || maxLength > maxCodeLength {
		return nil
	}
	codes := canonicalCodes(&lengths)

	// Exact output size: table + ceil(total code bits / 8). Skip the
	// bit-writing entirely when the result cannot win.
	var totalBits uint64
	for symbol, freq := range freqs {
		totalBits += uint64(freq) * uint64(codes[symbol].length)
	}
	tableSize := 2
	for _, length := range lengths {
		if length > 0 {
			tableSize += 2
		}
	}
	encodedSize := tableSize + int((totalBits+7)/8)
	if encodedSize >= len(block) {
		return nil
	}

	out := make([]byte, 0, encodedSize)
	out = appendCodeTable(out, &lengths)

	writer := bitWriter{out: out}
	for _, b := range block {
		hc := codes[b]
		writer.writeBits(hc.code, hc.length)
	}
	return writer.finish()
}

// huffDecode decompresses a Huffman-coded block payload into exactly
// originalLen bytes. Any structural defect — bad table, truncated or
// trailing bitstream, invalid code — is an error.
func huffDecode(payload []byte, originalLen int) ([]byte, error) {
	lengths, consumed, err := parseCodeTable(payload)
	if err != nil {
		return nil, err
	}
	decoder := newHuffDecoder(&lengths)
	reader := bitReader{data: payload[consumed:]}

	out := make([]byte, 0, originalLen)
	for len(out) < originalLen {
		if reader.remainingBits() >= fastDecodeBits {
			entry := decoder.fast[reader.peek(fastDecodeBits)]
			if entry.length != 0 {
				out = append(out, entry.symbol)
				reader.advance(uint(entry.length))
				continue
			}
		}
		symbol, err := decoder.decodeSymbol(&reader)
		if err != nil {
			return nil, err
		}
		out = append(out, symbol)
	}

	// At most 7 bits of padding may remain; whole trailing bytes mean
	// the declared original length does not match the stream.
	if reader.remainingBits() >= 8 {
		return nil, fmt.Errorf("huffman bitstream has %d trailing bytes", reader.remainingBits()/8)
	}
	return out, nil
}

// bitWriter packs MSB-first code bits into bytes.
type bitWriter struct {
	out         []byte
	accumulator uint64
	pendingBits uint
}

func (w *bitWriter) writeBits(code uint32, length uint8) {
	w.accumulator = w.accumulator<<length | uint64(code)
	w.pendingBits += uint(length)
	for w.pendingBits >= 8 {
		w.pendingBits -= 8
		w.out = append(w.out, byte(w.accumulator>>w.pendingBits))
	}
}

// finish flushes any partial byte (zero-padded on the right) and
// returns the completed buffer.
func (w *bitWriter) finish() []byte {
	if w.pendingBits > 0 {
		w.out = append(w.out, byte(w.accumulator<<(8-w.pendingBits)))
		w.pendingBits = 0
	}
	return w.out
}

// bitReader reads MSB-first bits from a byte slice.
type bitReader struct {
	data    []byte
	bytePos int
	bitPos  uint
}

func (r *bitReader) remainingBits() int {
	return (len(r.data)-r.bytePos)*8 - int(r.bitPos)
}

// peek returns the next n bits (n <= 24) without consuming them,
// zero-padded past the end of the data.
func (r *bitReader) peek(n uint) uint32 {
	var acc uint32
	for i := 0; i < 4; i++ {
		var b byte
		if r.bytePos+i < len(r.data) {
			b = r.data[r.bytePos+i]
		}
		acc = acc<<8 | uint32(b)
	}
	acc <<= r.bitPos
	return acc >> (32 - n)
}

func (r *bitReader) advance(n uint) {
	r.bitPos += n
	r.bytePos += int(r.bitPos >> 3)
	r.bitPos &= 7
}

func (r *bitReader) readBit() (uint32, bool) {
	if r.bytePos >= len(r.data) {
		return 0, false
	}
	bit := uint32(r.data[r.bytePos]>>(7-r.bitPos)) & 1
	r.advance(1)
	return bit, true
}
